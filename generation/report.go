package generation

import (
	"context"
	"errors"
	"time"
)

// Report summarizes a finished job.
type Report struct {
	TaskID         string           `json:"taskId"`
	Model          string           `json:"model"`
	Network        string           `json:"network,omitempty"`
	TxHash         string           `json:"txHash,omitempty"`
	Explorer       string           `json:"explorer,omitempty"`
	Result         GenerationResult `json:"result"`
	Attempts       int              `json:"attempts"`
	ElapsedSeconds float64          `json:"elapsedSeconds"`
}

// Run submits req once and polls it with the policy for its model.
func (c *Client) Run(ctx context.Context, req *GenerationRequest) (*Report, error) {
	start := time.Now()
	report, err := c.run(ctx, req)

	outcome := "completed"
	if err != nil {
		outcome = outcomeOf(err)
		c.observer.OnFailed(err)
	} else {
		c.observer.OnCompleted(report)
	}
	labels := map[string]string{"network": c.network.String(), "outcome": outcome}
	c.metrics.IncCounter("job", labels)
	c.metrics.ObserveLatency("job", time.Since(start), map[string]string{"network": c.network.String()})
	return report, err
}

func (c *Client) run(ctx context.Context, req *GenerationRequest) (*Report, error) {
	sub, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	c.observer.OnSubmitted(sub)

	policy := SelectPolicy(req.Model)
	out, err := c.Poll(ctx, sub, policy)
	if err != nil {
		return nil, err
	}

	txHash, explorer := sub.TxHash, sub.Explorer
	if txHash == "" && out.TxHash != "" {
		txHash, explorer = out.TxHash, ExplorerURL(out.TxHash, c.network)
	}

	return &Report{
		TaskID:         sub.TaskID,
		Model:          req.Model,
		Network:        c.network.String(),
		TxHash:         txHash,
		Explorer:       explorer,
		Result:         *out.Result,
		Attempts:       out.Attempts,
		ElapsedSeconds: out.Elapsed.Seconds(),
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInput):
		return "input_error"
	case errors.Is(err, ErrSubmission):
		return "submission_error"
	case errors.Is(err, ErrRemoteJob):
		return "failed"
	case errors.Is(err, ErrPollingTimeout):
		return "timeout"
	}
	return "transport_error"
}
