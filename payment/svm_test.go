package payment

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402gen/types"
)

type fakeSolanaReader struct {
	blockhash solana.Hash
	decimals  uint8
	err       error
}

func (f *fakeSolanaReader) LatestBlockhash(context.Context) (solana.Hash, error) {
	return f.blockhash, f.err
}

func (f *fakeSolanaReader) MintDecimals(context.Context, solana.PublicKey) (uint8, error) {
	return f.decimals, f.err
}

func solanaRequirements(feePayer, payTo solana.PublicKey) types.PaymentRequirements {
	return types.PaymentRequirements{
		Scheme:            "exact",
		Network:           "solana",
		MaxAmountRequired: "1500000",
		PayTo:             payTo.String(),
		MaxTimeoutSeconds: 60,
		Asset:             types.NetworkSolana.USDC(),
		Extra:             map[string]interface{}{"feePayer": feePayer.String()},
	}
}

func TestSVMPayerCreatePaymentHeader(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	feePayer := solana.NewWallet().PublicKey()
	payTo := solana.NewWallet().PublicKey()

	reader := &fakeSolanaReader{
		blockhash: solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"),
		decimals:  6,
	}
	p, err := NewSVMPayer(owner.String(), types.NetworkSolana, reader)
	require.NoError(t, err)
	assert.Equal(t, owner.PublicKey().String(), p.Address())

	header, err := p.CreatePaymentHeader(context.Background(), solanaRequirements(feePayer, payTo))
	require.NoError(t, err)

	decoded, err := DecodePaymentHeader(header)
	require.NoError(t, err)
	assert.Equal(t, "solana", decoded.Network)
	payload, err := DecodeExactSVMPayload(decoded)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload.Transaction)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)

	assert.Equal(t, reader.blockhash, tx.Message.RecentBlockhash)
	assert.True(t, tx.Message.AccountKeys[0].Equals(feePayer), "fee payer must be the first account")
	require.Len(t, tx.Message.Instructions, 3)
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, solana.Signature{}, tx.Signatures[0], "fee payer slot is left for the facilitator")

	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, tx.Signatures[1].Verify(owner.PublicKey(), msg))

	transfer := tx.Message.Instructions[2]
	program := tx.Message.AccountKeys[transfer.ProgramIDIndex]
	assert.True(t, program.Equals(solana.TokenProgramID))

	data := []byte(transfer.Data)
	require.Len(t, data, 10)
	assert.Equal(t, byte(12), data[0], "TransferChecked")
	assert.Equal(t, uint64(1_500_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, byte(6), data[9])
}

func TestSVMPayerRejectsBadRequirements(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	p, err := NewSVMPayer(owner.String(), types.NetworkSolana, &fakeSolanaReader{decimals: 6})
	require.NoError(t, err)

	var xerr *types.X402Error
	req := solanaRequirements(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	req.Extra = nil
	_, err = p.CreatePaymentHeader(context.Background(), req)
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, types.ErrInvalidRequirements, xerr.Code)

	req = solanaRequirements(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	req.MaxAmountRequired = "340282366920938463463374607431768211456"
	_, err = p.CreatePaymentHeader(context.Background(), req)
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, types.ErrInvalidRequirements, xerr.Code)
}

func TestSVMPayerRPCFailure(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	p, err := NewSVMPayer(owner.String(), types.NetworkSolanaDevnet, &fakeSolanaReader{err: errors.New("rpc down")})
	require.NoError(t, err)

	req := solanaRequirements(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	req.Network = "solana-devnet"
	_, err = p.CreatePaymentHeader(context.Background(), req)

	var xerr *types.X402Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, types.ErrNetworkError, xerr.Code)
}

func TestNewSVMPayerValidation(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = NewSVMPayer(owner.String(), types.NetworkBase, &fakeSolanaReader{})
	assert.Error(t, err)
	_, err = NewSVMPayer("0xdeadbeef", types.NetworkSolana, &fakeSolanaReader{})
	assert.Error(t, err)
	_, err = NewSVMPayer(owner.String(), types.NetworkSolana, nil)
	assert.Error(t, err)
}
