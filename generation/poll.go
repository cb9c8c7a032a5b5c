package generation

import (
	"context"
	"fmt"
	"time"
)

// PollOutcome is the terminal result of Poll.
type PollOutcome struct {
	Result   *GenerationResult
	Attempts int
	Elapsed  time.Duration
	TxHash   string
}

// Poll waits policy.Interval, reads the status, and repeats until the job
// completes or fails, or MaxAttempts reads have been made. The wait also
// precedes the first read.
func (c *Client) Poll(ctx context.Context, sub *SubmissionResult, policy PollingPolicy) (*PollOutcome, error) {
	if sub == nil || sub.TaskID == "" {
		return nil, inputError("task id is required")
	}
	if policy.Interval < 0 || policy.MaxAttempts <= 0 {
		return nil, inputError("invalid polling policy %+v", policy)
	}

	start := c.now()
	taskID := sub.TaskID
	c.logger.Info("polling job", map[string]any{
		"taskId":      taskID,
		"interval":    policy.Interval.String(),
		"maxAttempts": policy.MaxAttempts,
	})

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, policy.Interval); err != nil {
			return nil, transportError(taskID, "polling interrupted", err)
		}

		status, err := c.Status(ctx, taskID)
		if err != nil {
			c.metrics.IncCounter("poll", map[string]string{"network": c.network.String(), "outcome": "error"})
			return nil, err
		}
		elapsed := c.now().Sub(start)
		c.metrics.IncCounter("poll", map[string]string{"network": c.network.String(), "outcome": metricState(status.State)})

		switch status.State {
		case StateCompleted:
			if status.Result == nil || status.Result.Video == "" {
				return nil, &Error{Kind: ErrRemoteJob, TaskID: taskID, Message: "job completed without a media reference"}
			}
			c.logger.Info("job completed", map[string]any{"taskId": taskID, "attempts": attempt, "video": status.Result.Video})
			return &PollOutcome{Result: status.Result, Attempts: attempt, Elapsed: elapsed, TxHash: status.TxHash}, nil

		case StateFailed:
			c.logger.Error("job failed", map[string]any{"taskId": taskID, "attempts": attempt, "error": status.Error})
			return nil, &Error{Kind: ErrRemoteJob, TaskID: taskID, Message: status.Error}

		default:
			c.logger.Debug("job in progress", map[string]any{"taskId": taskID, "attempt": attempt, "state": status.State, "percent": status.Percent})
			c.observer.OnProgress(Progress{
				Attempt:     attempt,
				MaxAttempts: policy.MaxAttempts,
				Elapsed:     elapsed,
				State:       status.State,
				Percent:     status.Percent,
			})
		}
	}

	return nil, &Error{
		Kind:    ErrPollingTimeout,
		TaskID:  taskID,
		Message: fmt.Sprintf("no result after %d attempts (%s)", policy.MaxAttempts, policy.TimeoutLabel),
	}
}

// metricState keeps label cardinality bounded.
func metricState(s string) string {
	switch s {
	case StateQueued, StateRunning, StateCompleted, StateFailed:
		return s
	}
	return "other"
}
