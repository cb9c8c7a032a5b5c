package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402gen/config"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/mockserver"
	"github.com/vitwit/x402gen/siwe"
)

const (
	testEVMKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testEVMAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func noSleep(context.Context, time.Duration) error { return nil }

// isolateEnv clears every config variable and runs the test from an empty
// directory so no .env or x402gen.yaml leaks in.
func isolateEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		config.KeyAPIBaseURL, config.KeyEVMPrivateKey, config.KeySolanaPrivateKey,
		config.KeyEVMNetwork, config.KeySolanaNetwork, config.KeyEVMRPCURL,
		config.KeySolanaRPCURL, config.KeyTokenAddress, config.KeyMaxPayment,
		config.KeyHTTPTimeout, config.KeyLogLevel, config.KeyLogFormat,
		config.KeyMetricsPushgateway,
	} {
		t.Setenv(strings.ToUpper(key), "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root, a := newRoot(&stdout, &stderr)
	a.genOpts = []generation.Option{generation.WithSleep(noSleep)}
	err := a.run(root, args)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func startMock(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mockserver.New(mockserver.Config{}, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateAgainstMockServer(t *testing.T) {
	srv := startMock(t)
	isolateEnv(t, map[string]string{
		"API_BASE_URL":    srv.URL,
		"EVM_PRIVATE_KEY": testEVMKey,
		"EVM_NETWORK":     "base-sepolia",
	})

	res := execute(t, "generate", "A", "sunset", "over", "mountains", "--aspect-ratio", "16:9")
	require.NoError(t, res.err, res.stderr)

	var report generation.Report
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.NotEmpty(t, report.TaskID)
	assert.Equal(t, generation.DefaultModel, report.Model)
	assert.Equal(t, "base-sepolia", report.Network)
	assert.True(t, strings.HasPrefix(report.Explorer, "https://sepolia.basescan.org/tx/0x"), report.Explorer)
	assert.NotEmpty(t, report.Result.Video)
	assert.Equal(t, srv.URL+"/v/"+report.TaskID, report.Result.ShareURL)

	assert.Contains(t, res.stderr, "Paying from "+testEVMAddress+" on base-sepolia")
	assert.Contains(t, res.stderr, "Job accepted: "+report.TaskID)
	assert.Contains(t, res.stderr, "Completed after")

	// The finished job can be read back unpaid.
	res = execute(t, "status", report.TaskID)
	require.NoError(t, res.err, res.stderr)
	var st generation.PollStatus
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &st))
	assert.Equal(t, generation.StateCompleted, st.State)
}

func TestGenerateRemoteFailure(t *testing.T) {
	srv := startMock(t)
	isolateEnv(t, map[string]string{
		"API_BASE_URL":    srv.URL,
		"EVM_PRIVATE_KEY": testEVMKey,
	})

	res := execute(t, "generate", "please fail this one")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, generation.ErrRemoteJob)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Error: ")
}

func TestGenerateRequiresConfiguration(t *testing.T) {
	t.Run("no api url", func(t *testing.T) {
		isolateEnv(t, map[string]string{"EVM_PRIVATE_KEY": testEVMKey})
		res := execute(t, "generate", "a cat")
		assert.ErrorIs(t, res.err, generation.ErrInput)
		assert.Contains(t, res.stderr, "API_BASE_URL is required")
	})

	t.Run("no key", func(t *testing.T) {
		isolateEnv(t, map[string]string{"API_BASE_URL": "http://127.0.0.1:1"})
		res := execute(t, "generate", "a cat")
		assert.ErrorIs(t, res.err, generation.ErrInput)
	})

	t.Run("bad aspect ratio", func(t *testing.T) {
		isolateEnv(t, map[string]string{"API_BASE_URL": "http://127.0.0.1:1", "EVM_PRIVATE_KEY": testEVMKey})
		res := execute(t, "generate", "a cat", "--aspect-ratio", "2:1")
		assert.ErrorIs(t, res.err, generation.ErrInput)
	})

	t.Run("missing prompt", func(t *testing.T) {
		isolateEnv(t, nil)
		res := execute(t, "generate")
		assert.Error(t, res.err)
	})

	t.Run("bad network flag", func(t *testing.T) {
		isolateEnv(t, nil)
		res := execute(t, "version", "--evm-network", "solana")
		assert.ErrorIs(t, res.err, generation.ErrInput)
	})
}

func TestStatusUnknownTask(t *testing.T) {
	srv := startMock(t)
	isolateEnv(t, map[string]string{"API_BASE_URL": srv.URL})

	res := execute(t, "status", "does-not-exist")
	assert.ErrorIs(t, res.err, generation.ErrTransport)
}

func TestSIWEHeader(t *testing.T) {
	isolateEnv(t, map[string]string{
		"API_BASE_URL":    "https://api.example.com",
		"EVM_PRIVATE_KEY": testEVMKey,
	})

	res := execute(t, "siwe", "--statement", "Sign in to x402gen.")
	require.NoError(t, res.err, res.stderr)

	line := strings.TrimSpace(res.stdout)
	require.True(t, strings.HasPrefix(line, siwe.HeaderName+": "), line)
	signed, err := siwe.ParseHeader(strings.TrimPrefix(line, siwe.HeaderName+": "))
	require.NoError(t, err)

	msg, err := siwe.Verify(signed, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", msg.Domain)
	assert.Equal(t, "https://api.example.com", msg.URI)
	assert.Equal(t, testEVMAddress, msg.Address)
	assert.Equal(t, int64(8453), msg.ChainID)
	assert.Equal(t, "Sign in to x402gen.", msg.Statement)
}

func TestSIWERequiresKey(t *testing.T) {
	isolateEnv(t, map[string]string{"API_BASE_URL": "https://api.example.com"})
	res := execute(t, "siwe")
	assert.ErrorIs(t, res.err, generation.ErrInput)
}

func TestVersion(t *testing.T) {
	isolateEnv(t, nil)
	res := execute(t, "version")
	require.NoError(t, res.err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &v))
	assert.Equal(t, "1.0.0", v["version"])
	assert.Contains(t, v["supported_networks"], "solana-devnet")
}

func TestLoadImage(t *testing.T) {
	for _, ref := range []string{"", "https://example.com/a.png", "data:image/png;base64,AAAA"} {
		got, err := loadImage(ref)
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	}

	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n0000"), 0o600))
	got, err := loadImage(png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"), got)

	txt := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	_, err = loadImage(txt)
	assert.ErrorIs(t, err, generation.ErrInput)

	_, err = loadImage(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, generation.ErrInput)
}

func TestTerminalObserverPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	o := newTerminalObserver(&buf)
	assert.False(t, o.tty)

	o.OnProgress(generation.Progress{Attempt: 2, MaxAttempts: 120, Elapsed: 10 * time.Second, State: "running", Percent: 40})
	o.OnFailed(&generation.Error{Kind: generation.ErrPollingTimeout, TaskID: "t-1"})

	out := buf.String()
	assert.Contains(t, out, "running  40%  10s elapsed  poll 2/120\n")
	assert.Contains(t, out, "x402gen status t-1")
}
