package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vitwit/x402gen/payment"
	"github.com/vitwit/x402gen/types"
)

// SubmissionResult identifies an accepted job.
type SubmissionResult struct {
	TaskID     string    `json:"taskId"`
	TxHash     string    `json:"txHash,omitempty"`
	Explorer   string    `json:"explorer,omitempty"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

type createResponse struct {
	TaskID   string `json:"taskId"`
	TxHash   string `json:"txHash"`
	Explorer string `json:"explorer"`
}

// Submit posts req exactly once through the paying requester. Only a 202 with
// a non-empty taskId is a success; everything else is ErrSubmission.
func (c *Client) Submit(ctx context.Context, req *GenerationRequest) (*SubmissionResult, error) {
	if req == nil {
		return nil, inputError("generation request is required")
	}

	start := time.Now()
	sub, err := c.submit(ctx, req)
	labels := map[string]string{"network": c.network.String(), "outcome": "accepted"}
	if err != nil {
		labels["outcome"] = "rejected"
		c.logger.Error("submission failed", map[string]any{"error": err.Error()})
	} else {
		c.logger.Info("job accepted", map[string]any{
			"taskId": sub.TaskID,
			"txHash": sub.TxHash,
			"model":  req.Model,
		})
	}
	c.metrics.IncCounter("submission", labels)
	c.metrics.ObserveLatency("submission", time.Since(start), map[string]string{"network": c.network.String()})
	return sub, err
}

func (c *Client) submit(ctx context.Context, req *GenerationRequest) (*SubmissionResult, error) {
	body, err := json.Marshal(req.Payload())
	if err != nil {
		return nil, &Error{Kind: ErrSubmission, Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createURL(), bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: ErrSubmission, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("submitting generation", map[string]any{"url": httpReq.URL.String(), "model": req.Model})

	resp, err := c.requester.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: ErrSubmission, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrSubmission, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusAccepted {
		return nil, &Error{
			Kind:    ErrSubmission,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("expected HTTP %d", http.StatusAccepted),
			Body:    string(raw),
		}
	}

	var created createResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, &Error{
			Kind:    ErrSubmission,
			Status:  resp.StatusCode,
			Message: "response is not JSON",
			Body:    string(raw),
			Err:     err,
		}
	}
	if created.TaskID == "" {
		return nil, &Error{
			Kind:    ErrSubmission,
			Status:  resp.StatusCode,
			Message: "response has no taskId",
			Body:    string(raw),
		}
	}

	sub := &SubmissionResult{
		TaskID:     created.TaskID,
		TxHash:     created.TxHash,
		Explorer:   created.Explorer,
		AcceptedAt: c.now(),
	}
	if sub.TxHash == "" {
		sub.TxHash = c.settlementTx(resp.Header.Get(types.HeaderPaymentResponse))
	}
	if sub.Explorer == "" && sub.TxHash != "" {
		sub.Explorer = ExplorerURL(sub.TxHash, c.network)
	}
	return sub, nil
}

// settlementTx reads the transaction from an X-PAYMENT-RESPONSE header, if any.
func (c *Client) settlementTx(header string) string {
	if header == "" {
		return ""
	}
	settle, err := payment.DecodePaymentResponse(header)
	if err != nil {
		c.logger.Warn("ignoring malformed payment response header", map[string]any{"error": err.Error()})
		return ""
	}
	return settle.Transaction
}
