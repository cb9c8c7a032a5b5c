package payment

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitwit/x402gen/logger"
	"github.com/vitwit/x402gen/metrics"
	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

// Client is an HTTP requester that pays x402 challenges. A request answered
// with 402 is re-sent once with an X-PAYMENT header; any other status is
// returned to the caller as is.
type Client struct {
	http      *http.Client
	payer     Payer
	maxAmount *decimal.Decimal
	logger    logger.Logger
	metrics   metrics.Recorder
}

func NewClient(payer Payer, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 2 * time.Minute},
		payer:   payer,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Network is the network the client pays on.
func (c *Client) Network() types.Network {
	return c.payer.Network()
}

// Do sends req, paying for it if the server demands it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffer request body: %w", err)
		}
		body = b
	}

	resp, err := c.http.Do(withBody(req, body))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read 402 body: %w", err)
	}

	challenge, err := utils.ParseX402Response(raw)
	if err != nil {
		return nil, err
	}

	requirements, err := SelectRequirements(challenge.Accepts, c.payer.Network(), c.maxAmount)
	if err != nil {
		return nil, err
	}

	labels := map[string]string{"network": c.payer.Network().String()}
	c.logger.Info("payment required", map[string]any{
		"resource": requirements.Resource,
		"network":  requirements.Network,
		"amount":   requirements.MaxAmountRequired,
		"asset":    requirements.Asset,
		"payTo":    requirements.PayTo,
		"payer":    c.payer.Address(),
	})

	start := time.Now()
	header, err := c.payer.CreatePaymentHeader(req.Context(), *requirements)
	if err != nil {
		labels["outcome"] = "sign_failed"
		c.metrics.IncCounter("payment", labels)
		return nil, err
	}
	c.metrics.ObserveLatency("payment_sign", time.Since(start), labels)

	paid := withBody(req, body)
	paid.Header.Set(types.HeaderPayment, header)

	resp, err = c.http.Do(paid)
	if err != nil {
		labels["outcome"] = "transport_error"
		c.metrics.IncCounter("payment", labels)
		return nil, err
	}

	labels["outcome"] = http.StatusText(resp.StatusCode)
	c.metrics.IncCounter("payment", labels)
	if resp.StatusCode == http.StatusPaymentRequired {
		c.logger.Warn("payment rejected", map[string]any{"network": requirements.Network})
	}
	return resp, nil
}

// withBody clones req with a fresh reader over body so it can be replayed.
func withBody(req *http.Request, body []byte) *http.Request {
	out := req.Clone(req.Context())
	if body == nil {
		out.Body = nil
		out.GetBody = nil
		out.ContentLength = 0
		return out
	}
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))
	return out
}
