package generation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Job states reported by the status endpoint. Other values mean "in progress".
const (
	StateQueued    = "queued"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// PollStatus is the decoded reply of one status read.
type PollStatus struct {
	State   string            `json:"status"`
	Percent float64           `json:"percent"`
	Result  *GenerationResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
	TxHash  string            `json:"txHash,omitempty"`
}

// GenerationResult is the output of a completed job.
type GenerationResult struct {
	Video     string `json:"video"`
	Thumbnail string `json:"thumbnail,omitempty"`
	GIF       string `json:"gif,omitempty"`
	ShareURL  string `json:"shareUrl"`
}

type statusResponse struct {
	Status   string `json:"status"`
	Metadata *struct {
		Percent *float64 `json:"percent"`
	} `json:"metadata"`
	Progress *float64 `json:"progress"`
	Result   *struct {
		Generation *struct {
			Video string `json:"video"`
			Image string `json:"image"`
			GIF   string `json:"gif"`
		} `json:"generation"`
	} `json:"result"`
	Error    string `json:"error"`
	TxHash   string `json:"txHash"`
	Explorer string `json:"explorer"`
}

// Status reads the job state once. No payment is attached.
func (c *Client) Status(ctx context.Context, taskID string) (*PollStatus, error) {
	if taskID == "" {
		return nil, inputError("task id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL(taskID), nil)
	if err != nil {
		return nil, transportError(taskID, "build status request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(taskID, "status request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(taskID, "read status", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: ErrTransport, TaskID: taskID, Status: resp.StatusCode, Message: "status endpoint", Body: string(raw)}
	}

	var sr statusResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, &Error{Kind: ErrTransport, TaskID: taskID, Message: "decode status", Body: string(raw), Err: err}
	}
	return c.toPollStatus(taskID, &sr), nil
}

func (c *Client) toPollStatus(taskID string, sr *statusResponse) *PollStatus {
	ps := &PollStatus{
		State:  sr.Status,
		Error:  sr.Error,
		TxHash: sr.TxHash,
	}

	switch {
	case sr.Metadata != nil && sr.Metadata.Percent != nil:
		ps.Percent = *sr.Metadata.Percent
	case sr.Progress != nil:
		ps.Percent = *sr.Progress
	}
	ps.Percent = clampPercent(ps.Percent)

	if sr.Result != nil && sr.Result.Generation != nil {
		g := sr.Result.Generation
		ps.Result = &GenerationResult{
			Video:     g.Video,
			Thumbnail: g.Image,
			GIF:       g.GIF,
			ShareURL:  c.shareURL(taskID),
		}
		if ps.Result.Video == "" {
			ps.Result.Video = g.Image
		}
	}
	return ps
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
