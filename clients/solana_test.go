package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	x402types "github.com/vitwit/x402gen/types"
)

// newRPCServer answers JSON-RPC calls with the result registered for the method.
func newRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
}

func TestSolanaClientReads(t *testing.T) {
	blockhash := "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"
	server := newRPCServer(t, map[string]any{
		"getLatestBlockhash": map[string]any{
			"context": map[string]any{"slot": 1},
			"value":   map[string]any{"blockhash": blockhash, "lastValidBlockHeight": 200},
		},
		"getTokenSupply": map[string]any{
			"context": map[string]any{"slot": 1},
			"value":   map[string]any{"amount": "1000000", "decimals": 6, "uiAmountString": "1"},
		},
	})
	defer server.Close()

	client, err := NewSolanaClient(x402types.NetworkSolanaDevnet, server.URL)
	require.NoError(t, err)
	defer client.Close()

	hash, err := client.LatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, blockhash, hash.String())

	decimals, err := client.MintDecimals(context.Background(), solana.MustPublicKeyFromBase58(x402types.NetworkSolanaDevnet.USDC()))
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)
	assert.Equal(t, x402types.NetworkSolanaDevnet, client.GetNetwork())
}

func TestNewSolanaClientRejectsEVM(t *testing.T) {
	_, err := NewSolanaClient(x402types.NetworkBase, "http://127.0.0.1:1")
	assert.Error(t, err)
}
