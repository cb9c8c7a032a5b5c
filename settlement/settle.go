// Package settlement turns verified payments into settlement receipts.
package settlement

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/vitwit/x402gen/payment"
	"github.com/vitwit/x402gen/types"
)

// Settler interface defines the contract for payment settlement
type Settler interface {
	Settle(ctx context.Context, payload *types.PaymentPayload, payer string) (*types.SettleResponse, error)
}

// SimulatedSettler settles nothing on chain. It derives a stable transaction
// reference from the payment so that receipts look like real ones: a 0x hash
// on EVM networks and the payer's base58 signature on Solana.
type SimulatedSettler struct{}

var _ Settler = SimulatedSettler{}

func (SimulatedSettler) Settle(_ context.Context, payload *types.PaymentPayload, payer string) (*types.SettleResponse, error) {
	network := types.Network(payload.Network)

	var ref string
	switch {
	case network.IsEVM():
		evm, err := payment.DecodeExactEVMPayload(payload)
		if err != nil {
			return nil, err
		}
		sig, err := hexutil.Decode(evm.Signature)
		if err != nil {
			return nil, fmt.Errorf("decode signature: %w", err)
		}
		ref = hexutil.Encode(crypto.Keccak256(sig))

	case network.IsSolana():
		svm, err := payment.DecodeExactSVMPayload(payload)
		if err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(svm.Transaction)
		if err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		if err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		for _, sig := range tx.Signatures {
			if sig != (solana.Signature{}) {
				ref = sig.String()
				break
			}
		}
		if ref == "" {
			return nil, fmt.Errorf("transaction carries no signature")
		}

	default:
		return nil, &types.X402Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("unsupported network: %s", network),
		}
	}

	return &types.SettleResponse{
		Success:     true,
		Transaction: ref,
		Network:     payload.Network,
		Payer:       payer,
	}, nil
}
