package generation

import (
	"context"
	"net/http"
	"time"

	"github.com/vitwit/x402gen/logger"
	"github.com/vitwit/x402gen/metrics"
	"github.com/vitwit/x402gen/types"
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

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithNetwork sets the network payments settle on; it selects explorer links.
func WithNetwork(n types.Network) Option {
	return func(c *Client) {
		c.network = n
	}
}

// WithStatusHTTPClient sets the plain client used for unauthenticated status reads.
func WithStatusHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithSleep replaces the wait between polls.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}
