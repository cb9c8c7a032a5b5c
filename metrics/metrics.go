// Package metrics records x402gen events: submissions, polls, payments and
// whole jobs, labelled by network and outcome.
package metrics

import "time"

// Recorder receives counters and latencies. Labels other than network and
// outcome are dropped by the Prometheus backend.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}
