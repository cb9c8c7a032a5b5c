package settlement

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402gen/payment"
	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

type staticSolana struct{}

func (staticSolana) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"), nil
}

func (staticSolana) MintDecimals(context.Context, solana.PublicKey) (uint8, error) { return 6, nil }

func TestSimulatedSettlerEVM(t *testing.T) {
	payer, err := payment.NewEVMPayer("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", types.NetworkBase)
	require.NoError(t, err)
	header, err := payer.CreatePaymentHeader(context.Background(), types.PaymentRequirements{
		Scheme: "exact", Network: "base", MaxAmountRequired: "1", PayTo: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		MaxTimeoutSeconds: 60, Asset: types.NetworkBase.USDC(), Extra: map[string]interface{}{"name": "USD Coin", "version": "2"},
	})
	require.NoError(t, err)
	payload, err := payment.DecodePaymentHeader(header)
	require.NoError(t, err)

	first, err := SimulatedSettler{}.Settle(context.Background(), payload, payer.Address())
	require.NoError(t, err)
	second, err := SimulatedSettler{}.Settle(context.Background(), payload, payer.Address())
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.True(t, utils.IsEVMTxHash(first.Transaction), first.Transaction)
	assert.Equal(t, first.Transaction, second.Transaction, "reference is derived from the payment")
	assert.Equal(t, "base", first.Network)
	assert.Equal(t, payer.Address(), first.Payer)
}

func TestSimulatedSettlerSolana(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	payer, err := payment.NewSVMPayer(owner.String(), types.NetworkSolana, staticSolana{})
	require.NoError(t, err)
	header, err := payer.CreatePaymentHeader(context.Background(), types.PaymentRequirements{
		Scheme: "exact", Network: "solana", MaxAmountRequired: "1", PayTo: solana.NewWallet().PublicKey().String(),
		MaxTimeoutSeconds: 60, Asset: types.NetworkSolana.USDC(),
		Extra: map[string]interface{}{"feePayer": solana.NewWallet().PublicKey().String()},
	})
	require.NoError(t, err)
	payload, err := payment.DecodePaymentHeader(header)
	require.NoError(t, err)

	res, err := SimulatedSettler{}.Settle(context.Background(), payload, payer.Address())
	require.NoError(t, err)
	assert.True(t, utils.IsSolanaSignature(res.Transaction), res.Transaction)
}

func TestSimulatedSettlerUnknownNetwork(t *testing.T) {
	_, err := SimulatedSettler{}.Settle(context.Background(), &types.PaymentPayload{Network: "cosmoshub"}, "")
	assert.Error(t, err)
}
