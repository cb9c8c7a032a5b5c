package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectPolicy(t *testing.T) {
	slow := []string{"sora", "sora-2-pro", "openai-sora", "veo-3", "Google-VEO3", "kling-v2.1", "runway-gen4", "RUNWAY"}
	for _, m := range slow {
		p := SelectPolicy(m)
		assert.Equal(t, 10*time.Second, p.Interval, m)
		assert.Equal(t, 120, p.MaxAttempts, m)
		assert.Equal(t, "20 minutes", p.TimeoutLabel, m)
	}

	fast := []string{"xai-grok-imagine", "", "flux-pro", "seedance", "wan-2.2"}
	for _, m := range fast {
		p := SelectPolicy(m)
		assert.Equal(t, 5*time.Second, p.Interval, m)
		assert.Equal(t, 120, p.MaxAttempts, m)
		assert.Equal(t, "10 minutes", p.TimeoutLabel, m)
	}
}
