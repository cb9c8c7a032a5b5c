package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	r := NewPrometheusRecorder()

	r.IncCounter("poll", map[string]string{"network": "base"})
	r.IncCounter("poll", map[string]string{"network": "base"})
	r.IncCounter("job", map[string]string{"network": "solana", "outcome": "completed"})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.counters.WithLabelValues("poll", "base", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.counters.WithLabelValues("job", "solana", "completed")))
}

func TestPrometheusRecorderLatency(t *testing.T) {
	r := NewPrometheusRecorder()
	r.ObserveLatency("submission", 250*time.Millisecond, map[string]string{"network": "base"})

	count, err := testutil.GatherAndCount(r.Registry(), "x402gen_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusRecorderPush(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewPrometheusRecorder()
	r.IncCounter("submission", map[string]string{"network": "base", "outcome": "accepted"})

	require.NoError(t, r.Push(server.URL, "x402gen"))
	assert.Equal(t, "/metrics/job/x402gen", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncCounter("x", nil)
	r.ObserveLatency("x", time.Second, nil)
}
