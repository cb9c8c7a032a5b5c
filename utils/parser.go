package utils

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/x402gen/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct-tag validation with the shared validator.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

// ParseX402Response parses and validates the body of an HTTP 402 reply.
func ParseX402Response(data []byte) (*types.X402Response, error) {
	var resp types.X402Response

	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: fmt.Sprintf("failed to parse payment requirements: %v", err),
		}
	}

	if len(resp.Accepts) == 0 {
		msg := "402 response lists no accepted payment options"
		if resp.Error != "" {
			msg += ": " + resp.Error
		}
		return nil, &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: msg,
		}
	}

	for i := range resp.Accepts {
		if err := validate.Struct(&resp.Accepts[i]); err != nil {
			return nil, &types.X402Error{
				Code:    types.ErrInvalidRequirements,
				Message: fmt.Sprintf("accepts[%d]: validation failed: %v", i, err),
			}
		}
	}

	return &resp, nil
}

// Truncate shortens s to at most n bytes, marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
