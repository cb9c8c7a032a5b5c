// Package verification checks `exact` x402 payments offline: signatures,
// amounts, recipients and validity windows, without touching a chain.
package verification

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/vitwit/x402gen/payment"
	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

// Verifier interface defines the contract for payment verification
type Verifier interface {
	Verify(ctx context.Context, payload *types.PaymentPayload, requirements *types.PaymentRequirements) (*types.VerificationResult, error)
}

// ExactVerifier verifies `exact` payloads on EVM and Solana networks.
type ExactVerifier struct {
	now func() time.Time
}

var _ Verifier = (*ExactVerifier)(nil)

func NewExactVerifier() *ExactVerifier {
	return &ExactVerifier{now: time.Now}
}

func invalid(format string, args ...any) (*types.VerificationResult, error) {
	return &types.VerificationResult{IsValid: false, InvalidReason: fmt.Sprintf(format, args...)}, nil
}

// Verify reports an unacceptable payment as IsValid=false with a reason. The
// error is reserved for failures of the verifier itself.
func (v *ExactVerifier) Verify(
	ctx context.Context,
	payload *types.PaymentPayload,
	requirements *types.PaymentRequirements,
) (*types.VerificationResult, error) {
	if payload == nil || requirements == nil {
		return invalid("payload and requirements are required")
	}
	if err := requirements.Validate(); err != nil {
		return invalid("invalid requirements: %v", err)
	}
	if payload.X402Version != int(types.X402Version1) {
		return invalid("unsupported x402Version %d", payload.X402Version)
	}
	if payload.Scheme != requirements.Scheme || payload.Scheme != string(types.SchemeExact) {
		return invalid("scheme %q does not match %q", payload.Scheme, requirements.Scheme)
	}
	if payload.Network != requirements.Network {
		return invalid("payload network does not match requirements network")
	}

	network := types.Network(payload.Network)
	switch {
	case network.IsEVM():
		return v.verifyEVM(payload, requirements)
	case network.IsSolana():
		return v.verifySVM(payload, requirements)
	default:
		return invalid("unsupported network: %s", network)
	}
}

func (v *ExactVerifier) verifyEVM(payload *types.PaymentPayload, req *types.PaymentRequirements) (*types.VerificationResult, error) {
	evm, err := payment.DecodeExactEVMPayload(payload)
	if err != nil {
		return invalid("%v", err)
	}
	auth := evm.Authorization

	if !strings.EqualFold(auth.To, req.PayTo) {
		return invalid("authorization pays %s, expected %s", auth.To, req.PayTo)
	}
	if ok, err := atLeast(auth.Value, req.MaxAmountRequired); err != nil || !ok {
		return invalid("authorized value %s is below %s", auth.Value, req.MaxAmountRequired)
	}

	now := big.NewInt(v.now().Unix())
	after, okAfter := new(big.Int).SetString(auth.ValidAfter, 10)
	before, okBefore := new(big.Int).SetString(auth.ValidBefore, 10)
	if !okAfter || !okBefore {
		return invalid("malformed validity window")
	}
	if now.Cmp(after) < 0 || now.Cmp(before) >= 0 {
		return invalid("authorization is outside its validity window")
	}

	network := types.Network(req.Network)
	digest, err := payment.TransferWithAuthorizationDigest(auth, req.ExtraString("name"), req.ExtraString("version"), network.ChainID(), req.Asset)
	if err != nil {
		return invalid("cannot hash authorization: %v", err)
	}
	signer, err := utils.RecoverAddressFromSignature(digest, evm.Signature)
	if err != nil {
		return invalid("bad signature: %v", err)
	}
	if !strings.EqualFold(signer.Hex(), auth.From) {
		return invalid("signature is from %s, authorization is from %s", signer.Hex(), auth.From)
	}

	return &types.VerificationResult{IsValid: true, Payer: signer.Hex(), Amount: auth.Value}, nil
}

// transferCheckedID is the SPL token instruction discriminator for TransferChecked.
const transferCheckedID = 12

func (v *ExactVerifier) verifySVM(payload *types.PaymentPayload, req *types.PaymentRequirements) (*types.VerificationResult, error) {
	svm, err := payment.DecodeExactSVMPayload(payload)
	if err != nil {
		return invalid("%v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(svm.Transaction)
	if err != nil {
		return invalid("transaction is not base64: %v", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return invalid("cannot decode transaction: %v", err)
	}

	keys := tx.Message.AccountKeys
	if len(keys) == 0 || keys[0].String() != req.ExtraString("feePayer") {
		return invalid("fee payer must be %s", req.ExtraString("feePayer"))
	}

	mint, err := solana.PublicKeyFromBase58(req.Asset)
	if err != nil {
		return invalid("asset is not a Solana mint")
	}
	payTo, err := solana.PublicKeyFromBase58(req.PayTo)
	if err != nil {
		return invalid("payTo is not a Solana address")
	}
	wantDest, _, err := solana.FindAssociatedTokenAddress(payTo, mint)
	if err != nil {
		return nil, err
	}

	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) || !keys[ix.ProgramIDIndex].Equals(solana.TokenProgramID) {
			continue
		}
		data := []byte(ix.Data)
		if len(data) != 10 || data[0] != transferCheckedID || len(ix.Accounts) < 4 {
			continue
		}
		for _, a := range ix.Accounts[:4] {
			if int(a) >= len(keys) {
				return invalid("instruction references account %d of %d", a, len(keys))
			}
		}

		// accounts: source, mint, destination, owner
		if !keys[ix.Accounts[1]].Equals(mint) {
			return invalid("transfer mint %s, expected %s", keys[ix.Accounts[1]], mint)
		}
		if !keys[ix.Accounts[2]].Equals(wantDest) {
			return invalid("transfer destination is not the payTo token account")
		}
		amount := new(big.Int).SetUint64(binary.LittleEndian.Uint64(data[1:9]))
		if ok, _ := atLeast(amount.String(), req.MaxAmountRequired); !ok {
			return invalid("transfer amount %s is below %s", amount, req.MaxAmountRequired)
		}

		ownerIdx := int(ix.Accounts[3])
		owner := keys[ownerIdx]
		if ownerIdx >= len(tx.Signatures) {
			return invalid("owner %s has not signed", owner)
		}
		msg, err := tx.Message.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if !tx.Signatures[ownerIdx].Verify(owner, msg) {
			return invalid("owner signature does not verify")
		}
		return &types.VerificationResult{IsValid: true, Payer: owner.String(), Amount: amount.String()}, nil
	}

	return invalid("transaction has no TransferChecked instruction")
}

func atLeast(value, required string) (bool, error) {
	got, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return false, fmt.Errorf("invalid amount %q", value)
	}
	want, ok := new(big.Int).SetString(required, 10)
	if !ok {
		return false, fmt.Errorf("invalid amount %q", required)
	}
	return got.Cmp(want) >= 0, nil
}
