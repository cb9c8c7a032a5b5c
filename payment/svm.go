package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/vitwit/x402gen/types"
)

const (
	defaultComputeUnitLimit uint32 = 200_000
	defaultComputeUnitPrice uint64 = 1
)

// solanaReader is the slice of Solana RPC the payer needs. clients.SolanaClient
// satisfies it.
type solanaReader interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

var _ Payer = (*SVMPayer)(nil)

// SVMPayer pays `exact` requirements on Solana with an SPL TransferChecked
// transaction. The facilitator named in requirements.extra.feePayer pays fees,
// so the transaction carries only the owner's signature.
type SVMPayer struct {
	key     solana.PrivateKey
	network types.Network
	reader  solanaReader

	computeUnitLimit uint32
	computeUnitPrice uint64
}

func NewSVMPayer(base58Key string, network types.Network, reader solanaReader) (*SVMPayer, error) {
	if !network.IsSolana() {
		return nil, &types.X402Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not a Solana network", network),
		}
	}
	if reader == nil {
		return nil, &types.X402Error{Code: types.ErrConfigError, Message: "solana RPC reader is required"}
	}

	key, err := solana.PrivateKeyFromBase58(strings.TrimSpace(base58Key))
	if err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid Solana private key: %v", err),
		}
	}

	return &SVMPayer{
		key:              key,
		network:          network,
		reader:           reader,
		computeUnitLimit: defaultComputeUnitLimit,
		computeUnitPrice: defaultComputeUnitPrice,
	}, nil
}

func (p *SVMPayer) Network() types.Network { return p.network }

func (p *SVMPayer) Address() string { return p.key.PublicKey().String() }

// CreatePaymentHeader implements Payer.
func (p *SVMPayer) CreatePaymentHeader(ctx context.Context, req types.PaymentRequirements) (string, error) {
	if types.Network(req.Network) != p.network {
		return "", &types.X402Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("requirements are for %s, payer is on %s", req.Network, p.network),
		}
	}

	tx, err := p.buildTransfer(ctx, req)
	if err != nil {
		return "", err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", &types.X402Error{
			Code:    types.ErrSigningFailed,
			Message: fmt.Sprintf("serialize transaction: %v", err),
		}
	}

	return EncodePaymentHeader(types.PaymentPayload{
		X402Version: int(types.X402Version1),
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: types.ExactSVMPayload{
			Transaction: base64.StdEncoding.EncodeToString(raw),
		},
	})
}

func (p *SVMPayer) buildTransfer(ctx context.Context, req types.PaymentRequirements) (*solana.Transaction, error) {
	invalid := func(format string, args ...any) error {
		return &types.X402Error{Code: types.ErrInvalidRequirements, Message: fmt.Sprintf(format, args...)}
	}

	feePayer, err := solana.PublicKeyFromBase58(req.ExtraString("feePayer"))
	if err != nil {
		return nil, invalid("requirements.extra.feePayer must be a Solana address")
	}
	mint, err := solana.PublicKeyFromBase58(req.Asset)
	if err != nil {
		return nil, invalid("asset %q is not a Solana mint", req.Asset)
	}
	payTo, err := solana.PublicKeyFromBase58(req.PayTo)
	if err != nil {
		return nil, invalid("payTo %q is not a Solana address", req.PayTo)
	}
	amount, err := strconv.ParseUint(req.MaxAmountRequired, 10, 64)
	if err != nil {
		return nil, invalid("maxAmountRequired %q does not fit a u64", req.MaxAmountRequired)
	}

	owner := p.key.PublicKey()
	source, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive source token account: %w", err)
	}
	destination, _, err := solana.FindAssociatedTokenAddress(payTo, mint)
	if err != nil {
		return nil, fmt.Errorf("derive destination token account: %w", err)
	}

	decimals, err := p.reader.MintDecimals(ctx, mint)
	if err != nil {
		return nil, &types.X402Error{Code: types.ErrNetworkError, Message: err.Error()}
	}
	blockhash, err := p.reader.LatestBlockhash(ctx)
	if err != nil {
		return nil, &types.X402Error{Code: types.ErrNetworkError, Message: err.Error()}
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			computebudget.NewSetComputeUnitLimitInstruction(p.computeUnitLimit).Build(),
			computebudget.NewSetComputeUnitPriceInstruction(p.computeUnitPrice).Build(),
			token.NewTransferCheckedInstruction(amount, decimals, source, mint, destination, owner, nil).Build(),
		},
		blockhash,
		solana.TransactionPayer(feePayer),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	if err := partialSign(tx, p.key); err != nil {
		return nil, &types.X402Error{Code: types.ErrSigningFailed, Message: err.Error()}
	}
	return tx, nil
}

// partialSign fills the signer's slot and leaves the fee payer's zeroed.
func partialSign(tx *solana.Transaction, key solana.PrivateKey) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	signer := key.PublicKey()
	idx := -1
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(signer) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%s is not a required signer", signer)
	}

	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}

	tx.Signatures = make([]solana.Signature, required)
	tx.Signatures[idx] = sig
	return nil
}
