// Package circuit implements the daily circuit breaker.
//
// The breaker pauses new capital deployment for the rest of the trading day when
// intraday drawdown, realized loss or turnover exceed their limits. A pause holds
// until an operator clears it or the day key changes.
package circuit

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Trip reasons, in check order.
const (
	ReasonDrawdown     = "daily_drawdown"
	ReasonRealizedLoss = "realized_loss"
	ReasonTurnover     = "turnover"
)

// Config holds the circuit limits.
type Config struct {
	MaxDailyDrawdownPct  float64 // fraction of start equity
	MaxTurnoverPctPerDay float64 // multiple of current equity
}

// State is the circuit for one trading day.
type State struct {
	DayKey          string    `json:"day_key"`
	StartEquityUSD  float64   `json:"start_equity_usd"`
	MinEquityUSD    float64   `json:"min_equity_usd"`
	TurnoverUSD     float64   `json:"turnover_usd"`
	RealizedPnLUSD  float64   `json:"realized_pnl_usd"`
	RealizedBaseUSD float64   `json:"realized_base_usd"` // realized PnL at the last reset
	Paused          bool      `json:"paused"`
	PauseReason     string    `json:"pause_reason,omitempty"`
	LastPauseChange time.Time `json:"last_pause_change,omitempty"`
}

// Transition describes a change of the paused flag.
type Transition struct {
	Paused bool
	Reason string
}

// NewState returns a fresh unpaused circuit for day. A non-positive start equity
// leaves the drawdown and realized-loss checks disabled until Rebase is called.
func NewState(day string, startEquity float64) State {
	return State{
		DayKey:         day,
		StartEquityUSD: startEquity,
		MinEquityUSD:   startEquity,
	}
}

// Rebase sets the start equity of a circuit created without one.
func (s *State) Rebase(startEquity float64) {
	if s.StartEquityUSD > 0 || startEquity <= 0 {
		return
	}
	s.StartEquityUSD = startEquity
	s.MinEquityUSD = startEquity
}

// Update folds a trusted equity observation and the day's realized PnL into the state.
// MinEquityUSD never increases within a day.
func (s *State) Update(equity, realizedPnl float64) {
	if s.StartEquityUSD > 0 {
		s.MinEquityUSD = math.Min(s.MinEquityUSD, equity)
	}
	s.RealizedPnLUSD = realizedPnl
}

// RecordTurnover adds traded notional to the day's turnover.
func (s *State) RecordTurnover(usd float64) {
	if usd > 0 {
		s.TurnoverUSD += usd
	}
}

// Check evaluates the trip conditions while unpaused and pauses on the first one
// satisfied. It returns a transition only on the unpaused to paused edge.
func (s *State) Check(cfg Config, equity, realizedPnl float64, now time.Time) *Transition {
	if s.Paused {
		return nil
	}

	reason := s.tripReason(cfg, equity, realizedPnl)
	if reason == "" {
		return nil
	}

	s.Paused = true
	s.PauseReason = reason
	s.LastPauseChange = now
	return &Transition{Paused: true, Reason: reason}
}

func (s *State) tripReason(cfg Config, equity, realizedPnl float64) string {
	if s.StartEquityUSD > 0 && cfg.MaxDailyDrawdownPct > 0 {
		start := decimal.NewFromFloat(s.StartEquityUSD)
		limit := start.Mul(decimal.NewFromFloat(cfg.MaxDailyDrawdownPct))

		low := decimal.NewFromFloat(math.Min(s.MinEquityUSD, equity))
		if start.Sub(low).GreaterThanOrEqual(limit) {
			return ReasonDrawdown
		}
		loss := decimal.NewFromFloat(s.RealizedBaseUSD).Sub(decimal.NewFromFloat(realizedPnl))
		if loss.IsPositive() && loss.GreaterThanOrEqual(limit) {
			return ReasonRealizedLoss
		}
	}

	if cfg.MaxTurnoverPctPerDay > 0 && equity > 0 && s.TurnoverUSD > 0 {
		limit := decimal.NewFromFloat(equity).Mul(decimal.NewFromFloat(cfg.MaxTurnoverPctPerDay))
		if decimal.NewFromFloat(s.TurnoverUSD).GreaterThanOrEqual(limit) {
			return ReasonTurnover
		}
	}

	return ""
}

// Reset starts the circuit over on day from startEquity: unpaused, no turnover,
// minimum equity at start. realizedPnl becomes the realized-loss baseline.
// It returns a transition only when the circuit was paused.
func (s *State) Reset(day string, startEquity, realizedPnl float64, reason string, now time.Time) *Transition {
	tr := s.Clear(reason, now)
	changed := s.LastPauseChange
	*s = NewState(day, startEquity)
	s.RealizedPnLUSD = realizedPnl
	s.RealizedBaseUSD = realizedPnl
	s.LastPauseChange = changed
	return tr
}

// DrawdownPct returns the intraday drawdown from start equity, or 0 when unset.
func (s State) DrawdownPct() float64 {
	if s.StartEquityUSD <= 0 {
		return 0
	}
	return 1 - s.MinEquityUSD/s.StartEquityUSD
}

// DayKey returns the trading-day key of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// DayBounds returns the start and end of the trading day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
