// Package executor submits sized intents to the external execution layer.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// Client implements domain.Executor over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates an execution-layer client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "executor").Logger(),
	}
}

type submitRequest struct {
	Intent                 domain.TradeIntent `json:"intent"`
	MaxPriorityFeeLamports int64              `json:"max_priority_fee_lamports"`
}

// Execute posts the intent and decodes the outcome. Transport failures and
// timeouts come back as failed outcomes together with the error.
func (c *Client) Execute(ctx context.Context, intent domain.TradeIntent, maxPriorityFeeLamports int64) (domain.ExecutionOutcome, error) {
	if c.baseURL == "" {
		return domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureOther}, domain.ErrExecutorUnavailable
	}

	payload, err := json.Marshal(submitRequest{Intent: intent, MaxPriorityFeeLamports: maxPriorityFeeLamports})
	if err != nil {
		return domain.ExecutionOutcome{}, fmt.Errorf("failed to encode intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/intents", bytes.NewReader(payload))
	if err != nil {
		return domain.ExecutionOutcome{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", intent.ID)

	resp, err := c.client.Do(req)
	if err != nil {
		kind := domain.FailureOther
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = domain.FailureTimeout
		}
		return domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: kind, Message: err.Error()},
			fmt.Errorf("execution request failed: %w", err)
	}
	defer resp.Body.Close()

	var outcome domain.ExecutionOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil && resp.StatusCode == http.StatusOK {
		return domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureOther, Message: err.Error()},
			fmt.Errorf("failed to parse outcome: %w", err)
	}

	if resp.StatusCode >= 300 {
		if outcome.Status != domain.ExecFailed {
			outcome.Status = domain.ExecFailed
			outcome.FailureKind = domain.FailureOther
		}
		if outcome.Message == "" {
			outcome.Message = fmt.Sprintf("status %d", resp.StatusCode)
		}
	}
	if outcome.Status == domain.ExecFailed && outcome.FailureKind == "" {
		outcome.FailureKind = domain.FailureOther
	}

	c.log.Info().
		Str("intent_id", intent.ID).
		Str("mint", intent.Mint).
		Str("status", string(outcome.Status)).
		Str("failure_kind", outcome.FailureKind).
		Str("signature", outcome.Signature).
		Msg("Execution outcome")
	return outcome, nil
}
