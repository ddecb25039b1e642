// Package solana reads the managed wallet's SOL balance over JSON-RPC.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRPCURL is the public mainnet endpoint.
const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

// Client implements domain.WalletOracle for one wallet address.
type Client struct {
	rpcURL  string
	address string
	client  *http.Client
	nextID  atomic.Int64
	log     zerolog.Logger
}

// NewClient creates a balance client for address.
func NewClient(rpcURL, address string, timeout time.Duration, log zerolog.Logger) *Client {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		rpcURL:  rpcURL,
		address: address,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "solana_rpc").Logger(),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type balanceResponse struct {
	Result *struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// ReserveBalanceLamports returns the wallet's SOL balance at confirmed commitment.
func (c *Client) ReserveBalanceLamports(ctx context.Context) (uint64, error) {
	if c.address == "" {
		return 0, fmt.Errorf("wallet address not configured")
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "getBalance",
		Params:  []interface{}{c.address, map[string]string{"commitment": "confirmed"}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("RPC returned status %d", resp.StatusCode)
	}

	var out balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to parse RPC response: %w", err)
	}
	if out.Error != nil {
		return 0, fmt.Errorf("RPC error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return 0, fmt.Errorf("RPC response has no result")
	}

	c.log.Debug().
		Uint64("lamports", out.Result.Value).
		Uint64("slot", out.Result.Context.Slot).
		Msg("Fetched reserve balance")
	return out.Result.Value, nil
}
