package allocation

import (
	"time"
)

// Sell hysteresis suppression reasons.
const (
	ReasonMinHoldNotMet   = "min_hold_not_met"
	ReasonDebouncePending = "debounce_pending"
	ReasonTrimBelowMin    = "trim_below_min"
)

// HysteresisConfig gates target-drop sells.
type HysteresisConfig struct {
	MinHold       time.Duration
	DebounceTicks int
	MinTrimUSD    float64
}

// HysteresisState is the per-mint sell debounce state.
type HysteresisState struct {
	EntryTime                   time.Time `json:"entry_time"`
	ConsecutiveTicksBelowTarget int       `json:"consecutive_ticks_below_target"`
	LastEvaluatedTargetPct      float64   `json:"last_evaluated_target_pct"`
}

// SellHysteresis tracks hysteresis state per mint. Not safe for concurrent use;
// the reconciler is its only writer.
type SellHysteresis struct {
	states map[string]*HysteresisState
}

// NewSellHysteresis creates empty hysteresis state.
func NewSellHysteresis() *SellHysteresis {
	return &SellHysteresis{states: make(map[string]*HysteresisState)}
}

func (h *SellHysteresis) get(mint string) *HysteresisState {
	s, ok := h.states[mint]
	if !ok {
		s = &HysteresisState{}
		h.states[mint] = s
	}
	return s
}

// RecordEntry sets the entry time of a mint if none is known.
func (h *SellHysteresis) RecordEntry(mint string, at time.Time) {
	s := h.get(mint)
	if s.EntryTime.IsZero() {
		s.EntryTime = at
	}
}

// Observe records one tick's target versus current allocation for a held mint.
func (h *SellHysteresis) Observe(mint string, targetPct, currentPct float64) {
	s := h.get(mint)
	if targetPct < currentPct {
		s.ConsecutiveTicksBelowTarget++
	} else {
		s.ConsecutiveTicksBelowTarget = 0
	}
	s.LastEvaluatedTargetPct = targetPct
}

// Evaluate decides whether a target-drop sell of trimUSD may proceed.
func (h *SellHysteresis) Evaluate(mint string, trimUSD float64, now time.Time, cfg HysteresisConfig) (bool, string) {
	s := h.get(mint)

	if !s.EntryTime.IsZero() && now.Sub(s.EntryTime) < cfg.MinHold {
		return false, ReasonMinHoldNotMet
	}
	if s.ConsecutiveTicksBelowTarget < cfg.DebounceTicks {
		return false, ReasonDebouncePending
	}
	if trimUSD < cfg.MinTrimUSD {
		return false, ReasonTrimBelowMin
	}
	return true, ""
}

// State returns a copy of the state for mint.
func (h *SellHysteresis) State(mint string) (HysteresisState, bool) {
	s, ok := h.states[mint]
	if !ok {
		return HysteresisState{}, false
	}
	return *s, true
}

// Forget drops state for a mint that is no longer held.
func (h *SellHysteresis) Forget(mint string) {
	delete(h.states, mint)
}

// Reset drops all state.
func (h *SellHysteresis) Reset() {
	h.states = make(map[string]*HysteresisState)
}
