// Package generation submits paid media generation jobs and polls them to
// completion.
package generation

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitwit/x402gen/logger"
	"github.com/vitwit/x402gen/metrics"
	"github.com/vitwit/x402gen/types"
)

// Requester issues an HTTP request, attaching payment when the server asks
// for it. payment.Client implements it; so does *http.Client for free APIs.
type Requester interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one generation API. It is not safe for concurrent Runs
// sharing one Observer.
type Client struct {
	baseURL   string
	requester Requester
	http      *http.Client
	network   types.Network

	logger   logger.Logger
	metrics  metrics.Recorder
	observer Observer

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewClient(baseURL string, requester Requester, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, inputError("API base URL %q must be an absolute http(s) URL", baseURL)
	}
	if requester == nil {
		return nil, inputError("a payment-capable requester is required")
	}

	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		requester: requester,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger.NoopLogger{},
		metrics:   metrics.NoopRecorder{},
		observer:  NoopObserver{},
		sleep:     sleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Network() types.Network { return c.network }

func (c *Client) createURL() string {
	return c.baseURL + "/generation/create"
}

func (c *Client) statusURL(taskID string) string {
	return c.baseURL + "/generation/" + url.PathEscape(taskID) + "/status"
}

func (c *Client) shareURL(taskID string) string {
	return c.baseURL + "/v/" + url.PathEscape(taskID)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
