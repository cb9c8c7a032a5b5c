package payment

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402gen/types"
)

func TestPaymentResponseHeader(t *testing.T) {
	h, err := EncodePaymentResponse(types.SettleResponse{Success: true, Transaction: "0x1", Network: "base"})
	require.NoError(t, err)

	s, err := DecodePaymentResponse(h)
	require.NoError(t, err)
	assert.Equal(t, "0x1", s.Transaction)
	assert.Equal(t, "base", s.Network)
}

func TestDecodeHeaderErrors(t *testing.T) {
	var xerr *types.X402Error

	_, err := DecodePaymentHeader("%%%")
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, types.ErrInvalidPayload, xerr.Code)

	_, err = DecodePaymentResponse("bm90IGpzb24=") // "not json"
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, types.ErrInvalidPayload, xerr.Code)

	_, err = DecodeExactEVMPayload(&types.PaymentPayload{Payload: map[string]any{"signature": ""}})
	assert.Error(t, err)
	_, err = DecodeExactSVMPayload(&types.PaymentPayload{Payload: map[string]any{}})
	assert.Error(t, err)
}

func TestSelectRequirements(t *testing.T) {
	upto := baseRequirements()
	upto.Scheme = "upto"
	exact := baseRequirements()

	got, err := SelectRequirements([]types.PaymentRequirements{upto, exact}, types.NetworkBase, nil)
	require.NoError(t, err)
	assert.Equal(t, "exact", got.Scheme)

	bad := baseRequirements()
	bad.MaxAmountRequired = "lots"
	_, err = SelectRequirements([]types.PaymentRequirements{bad}, types.NetworkBase, nil)
	assert.NoError(t, err, "amount is only parsed when a cap is set")

	limit := decimal.NewFromInt(1_000_000)
	_, err = SelectRequirements([]types.PaymentRequirements{bad}, types.NetworkBase, &limit)
	var xerr *types.X402Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, types.ErrInvalidRequirements, xerr.Code)

	got, err = SelectRequirements([]types.PaymentRequirements{exact}, types.NetworkBase, &limit)
	require.NoError(t, err)
	assert.Equal(t, "250000", got.MaxAmountRequired)
}
