// Package domain provides core domain models and types.
package domain

import (
	"strings"
	"time"
)

// Well-known Solana mints used as reserve assets.
const (
	NativeMint = "So11111111111111111111111111111111111111112"
	USDCMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint   = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"

	// LamportsPerSOL is the number of base units in one SOL.
	LamportsPerSOL = 1_000_000_000
	// NativeDecimals is the decimal precision of SOL.
	NativeDecimals = 9
)

// Lane is a position-sizing tier with its own risk thresholds.
type Lane string

const (
	// LaneScout is the small probe tier.
	LaneScout Lane = "scout"
	// LaneCore is the conviction-sized tier.
	LaneCore Lane = "core"
)

// ParseLane normalises a lane name, defaulting to scout.
func ParseLane(s string) Lane {
	if strings.EqualFold(strings.TrimSpace(s), string(LaneCore)) {
		return LaneCore
	}
	return LaneScout
}

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Urgency expresses how costly it is to delay a transaction.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// IntentKind describes why a trade intent was produced.
type IntentKind string

const (
	IntentRebalanceBuy   IntentKind = "rebalance_buy"
	IntentTargetDropSell IntentKind = "target_drop_sell"
	IntentProtectiveExit IntentKind = "protective_exit"
)

// Position is an open holding as seen by the position store.
type Position struct {
	Mint         string    `json:"mint"`
	Symbol       string    `json:"symbol,omitempty"`
	Decimals     int32     `json:"decimals"`
	Quantity     float64   `json:"quantity"`       // whole tokens
	CostBasisUSD float64   `json:"cost_basis_usd"` // total entry cost of the open quantity
	Lane         Lane      `json:"lane"`
	OpenedAt     time.Time `json:"opened_at"`
	LastTradeAt  time.Time `json:"last_trade_at"`
	Liquidating  bool      `json:"liquidating"`
}

// ValueUSD returns the marked value of the position at price, or zero if unpriced.
func (p Position) ValueUSD(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return p.Quantity * price
}

// TargetCandidate is a discovery-pipeline output: an asset with an opaque score.
type TargetCandidate struct {
	Mint     string    `json:"mint"`
	Symbol   string    `json:"symbol,omitempty"`
	Score    float64   `json:"score"`
	Lane     Lane      `json:"lane"`
	Decimals int32     `json:"decimals"`
	Updated  time.Time `json:"updated_at"`
}

// TradeIntent is a sized, reason-coded trade proposal.
type TradeIntent struct {
	ID         string     `json:"id"`
	Mint       string     `json:"mint"`
	Side       Side       `json:"side"`
	Lane       Lane       `json:"lane"`
	Kind       IntentKind `json:"kind"`
	AmountUSD  float64    `json:"amount_usd"`
	TargetPct  float64    `json:"target_pct"`
	CurrentPct float64    `json:"current_pct"`
	DriftPct   float64    `json:"drift_pct"`
	Reason     string     `json:"reason"`
	Urgency    Urgency    `json:"urgency"`
	Attempt    int        `json:"attempt"`
	CloseAll   bool       `json:"close_all"` // sell the entire position regardless of AmountUSD
}

// ExecutionStatus is the outcome reported by the execution layer.
type ExecutionStatus string

const (
	ExecSubmitted ExecutionStatus = "submitted"
	ExecConfirmed ExecutionStatus = "confirmed"
	ExecFailed    ExecutionStatus = "failed"
	ExecPaper     ExecutionStatus = "paper"
)

// Failure kinds for ExecFailed outcomes.
const (
	FailureInsufficientFunds = "insufficient_funds"
	FailureSimulation        = "simulation_failed"
	FailureOther             = "other_error"
	FailureTimeout           = "timeout"
)

// ExecutionOutcome is what the engine reads back from the execution layer.
type ExecutionOutcome struct {
	Status      ExecutionStatus `json:"status"`
	FailureKind string          `json:"failure_kind,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	FilledUSD   float64         `json:"filled_usd"`
	Message     string          `json:"message,omitempty"`
}

// Filled reports whether the outcome moved capital.
func (o ExecutionOutcome) Filled() bool {
	switch o.Status {
	case ExecConfirmed, ExecPaper, ExecSubmitted:
		return true
	}
	return false
}
