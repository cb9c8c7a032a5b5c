package payment

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/vitwit/x402gen/logger"
	"github.com/vitwit/x402gen/metrics"
)

type Option func(*Client)

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithMaxAmount refuses to pay more than max atomic units per request.
func WithMaxAmount(max decimal.Decimal) Option {
	return func(c *Client) {
		c.maxAmount = &max
	}
}
