// Package payment implements the paying side of the x402 protocol: an HTTP
// requester that answers 402 challenges by attaching an X-PAYMENT header
// produced by a chain-specific Payer.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vitwit/x402gen/types"
)

// Payer authorizes a payment for one set of requirements and returns the
// value of the X-PAYMENT header.
type Payer interface {
	Network() types.Network
	Address() string
	CreatePaymentHeader(ctx context.Context, req types.PaymentRequirements) (string, error)
}

// SelectRequirements picks the first `exact` option offered on the payer's
// network. maxAmount, when non-nil, caps maxAmountRequired (atomic units).
func SelectRequirements(accepts []types.PaymentRequirements, network types.Network, maxAmount *decimal.Decimal) (*types.PaymentRequirements, error) {
	offered := make([]string, 0, len(accepts))
	for i := range accepts {
		req := accepts[i]
		offered = append(offered, req.Scheme+"/"+req.Network)
		if req.Scheme != string(types.SchemeExact) || types.Network(req.Network) != network {
			continue
		}

		if maxAmount != nil {
			amount, err := decimal.NewFromString(req.MaxAmountRequired)
			if err != nil {
				return nil, &types.X402Error{
					Code:    types.ErrInvalidRequirements,
					Message: fmt.Sprintf("invalid maxAmountRequired %q: %v", req.MaxAmountRequired, err),
				}
			}
			if amount.GreaterThan(*maxAmount) {
				return nil, &types.X402Error{
					Code:    types.ErrAmountTooHigh,
					Message: fmt.Sprintf("server asks for %s atomic units, limit is %s", amount, maxAmount),
					Data:    req,
				}
			}
		}
		return &req, nil
	}

	return nil, &types.X402Error{
		Code:    types.ErrNoMatchingOption,
		Message: fmt.Sprintf("no exact payment option for network %s (offered: %s)", network, strings.Join(offered, ", ")),
	}
}
