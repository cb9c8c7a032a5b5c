package generation

import "time"

// Progress describes one non-terminal poll.
type Progress struct {
	Attempt     int
	MaxAttempts int
	Elapsed     time.Duration
	State       string
	Percent     float64
}

// Observer receives lifecycle events of a Run for presentation.
type Observer interface {
	OnSubmitted(sub *SubmissionResult)
	OnProgress(p Progress)
	OnCompleted(r *Report)
	OnFailed(err error)
}

type NoopObserver struct{}

func (NoopObserver) OnSubmitted(*SubmissionResult) {}
func (NoopObserver) OnProgress(Progress)           {}
func (NoopObserver) OnCompleted(*Report)           {}
func (NoopObserver) OnFailed(error)                {}
