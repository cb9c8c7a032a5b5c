package payment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vitwit/x402gen/types"
)

// EncodePaymentHeader serializes a payment payload as base64(JSON).
func EncodePaymentHeader(p types.PaymentPayload) (string, error) {
	bz, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(bz), nil
}

// DecodePaymentHeader is the inverse of EncodePaymentHeader. The inner
// payload is left as a generic JSON value.
func DecodePaymentHeader(h string) (*types.PaymentPayload, error) {
	var p types.PaymentPayload
	if err := decodeBase64JSON(h, &p); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidPayload,
			Message: fmt.Sprintf("invalid %s header: %v", types.HeaderPayment, err),
		}
	}
	return &p, nil
}

// EncodePaymentResponse serializes a settlement result for X-PAYMENT-RESPONSE.
func EncodePaymentResponse(s types.SettleResponse) (string, error) {
	bz, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(bz), nil
}

// DecodePaymentResponse decodes the X-PAYMENT-RESPONSE header.
func DecodePaymentResponse(h string) (*types.SettleResponse, error) {
	var s types.SettleResponse
	if err := decodeBase64JSON(h, &s); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidPayload,
			Message: fmt.Sprintf("invalid %s header: %v", types.HeaderPaymentResponse, err),
		}
	}
	return &s, nil
}

func decodeBase64JSON(h string, v any) error {
	data, err := base64.StdEncoding.DecodeString(h)
	if err != nil {
		return fmt.Errorf("invalid base64: %w", err)
	}
	return json.Unmarshal(data, v)
}

// DecodeExactEVMPayload reinterprets the generic payload of an EVM payment.
func DecodeExactEVMPayload(p *types.PaymentPayload) (*types.ExactEVMPayload, error) {
	var out types.ExactEVMPayload
	if err := remarshal(p.Payload, &out); err != nil {
		return nil, err
	}
	if out.Signature == "" || out.Authorization.From == "" {
		return nil, &types.X402Error{Code: types.ErrInvalidPayload, Message: "missing signature or authorization"}
	}
	return &out, nil
}

// DecodeExactSVMPayload reinterprets the generic payload of a Solana payment.
func DecodeExactSVMPayload(p *types.PaymentPayload) (*types.ExactSVMPayload, error) {
	var out types.ExactSVMPayload
	if err := remarshal(p.Payload, &out); err != nil {
		return nil, err
	}
	if out.Transaction == "" {
		return nil, &types.X402Error{Code: types.ErrInvalidPayload, Message: "missing transaction"}
	}
	return &out, nil
}

func remarshal(in, out any) error {
	bz, err := json.Marshal(in)
	if err == nil {
		err = json.Unmarshal(bz, out)
	}
	if err != nil {
		return &types.X402Error{Code: types.ErrInvalidPayload, Message: fmt.Sprintf("invalid payload: %v", err)}
	}
	return nil
}
