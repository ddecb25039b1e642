package controller

import (
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/gates"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/portfolio"
)

// IntentOutcome pairs an attempted intent with its fee budget and result.
type IntentOutcome struct {
	IntentID    string                 `json:"intent_id"`
	Mint        string                 `json:"mint"`
	Side        domain.Side            `json:"side"`
	Kind        domain.IntentKind      `json:"kind"`
	AmountUSD   float64                `json:"amount_usd"`
	FeeLamports int64                  `json:"fee_lamports"`
	Status      domain.ExecutionStatus `json:"status"`
	FailureKind string                 `json:"failure_kind,omitempty"`
	Signature   string                 `json:"signature,omitempty"`
}

// Status summarises the last completed tick.
type Status struct {
	TickID            string                     `json:"tick_id"`
	StartedAt         time.Time                  `json:"started_at"`
	DurationMs        int64                      `json:"duration_ms"`
	TradingMode       string                     `json:"trading_mode"`
	Equity            portfolio.Valuation        `json:"equity"`
	EquityTrusted     bool                       `json:"equity_trusted"`
	PositionCoverage  gates.CoverageResult       `json:"position_coverage"`
	ExecutionCoverage gates.CoverageResult       `json:"execution_coverage"`
	Gates             gates.GlobalGates          `json:"gates"`
	Circuit           circuit.State              `json:"circuit"`
	Scaling           allocation.ScalingMetadata `json:"scaling"`
	Targets           []allocation.Target        `json:"targets"`
	Intents           []domain.TradeIntent       `json:"intents"`
	Outcomes          []IntentOutcome            `json:"outcomes"`
	Suppressed        []allocation.Suppression   `json:"suppressed"`
	Unaccounted       []string                   `json:"unaccounted,omitempty"`
	Executed          int                        `json:"executed"`
	Failed            int                        `json:"failed"`
	Warnings          []string                   `json:"warnings,omitempty"`
	Error             string                     `json:"error,omitempty"`
}

// Status returns the summary of the last completed tick. The zero Status means
// no tick has completed yet.
func (c *Controller) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// Circuit returns the live circuit state.
func (c *Controller) Circuit() circuit.State {
	return c.breaker.Snapshot()
}

// AllocationState returns the reconciler's per-mint state.
func (c *Controller) AllocationState() allocation.StateSnapshot {
	return c.reconciler.Snapshot()
}
