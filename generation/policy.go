package generation

import (
	"strings"
	"time"
)

// PollingPolicy is fixed for one polling session.
type PollingPolicy struct {
	Interval     time.Duration
	MaxAttempts  int
	TimeoutLabel string
}

var (
	SlowPolicy = PollingPolicy{Interval: 10 * time.Second, MaxAttempts: 120, TimeoutLabel: "20 minutes"}
	FastPolicy = PollingPolicy{Interval: 5 * time.Second, MaxAttempts: 120, TimeoutLabel: "10 minutes"}
)

// slowModels are backends that routinely take several minutes per clip.
var slowModels = []string{"sora", "veo", "kling", "runway"}

// SelectPolicy picks SlowPolicy when model mentions any slow backend.
func SelectPolicy(model string) PollingPolicy {
	m := strings.ToLower(model)
	for _, token := range slowModels {
		if strings.Contains(m, token) {
			return SlowPolicy
		}
	}
	return FastPolicy
}
