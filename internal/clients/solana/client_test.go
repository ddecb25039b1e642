package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveBalanceLamports(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getBalance", req.Method)
		assert.Equal(t, "2.0", req.JSONRPC)
		require.Len(t, req.Params, 2)
		assert.Equal(t, "Wallet111", req.Params[0])

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":250},"value":1500000000}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "Wallet111", time.Second, zerolog.Nop())
	lamports, err := c.ReserveBalanceLamports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)
}

func TestReserveBalanceLamports_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{"rpc error", http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`},
		{"http error", http.StatusServiceUnavailable, ``},
		{"no result", http.StatusOK, `{"jsonrpc":"2.0","id":1}`},
		{"garbage", http.StatusOK, `not json`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, "Wallet111", time.Second, zerolog.Nop())
			_, err := c.ReserveBalanceLamports(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestReserveBalanceLamports_NoAddress(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", time.Second, zerolog.Nop())
	_, err := c.ReserveBalanceLamports(context.Background())
	assert.Error(t, err)
}
