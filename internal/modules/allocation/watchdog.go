package allocation

import (
	"math"
	"time"
)

// ReasonStuckBackoff is the suppression reason while a mint is backing off.
const ReasonStuckBackoff = "stuck_backoff"

// WatchdogConfig controls stuck-target backoff.
type WatchdogConfig struct {
	MaxFailures        int
	MeaningfulGapPct   float64
	BaseBackoffMinutes float64
	MaxBackoffExponent int
}

// StuckTargetState is the per-mint failure counter.
type StuckTargetState struct {
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastAttemptAt       time.Time `json:"last_attempt_at"`
	BackoffUntil        time.Time `json:"backoff_until,omitempty"`
}

// StuckWatchdog suppresses repeated attempts at targets that keep failing.
// Not safe for concurrent use; the reconciler is its only writer.
type StuckWatchdog struct {
	states map[string]*StuckTargetState
}

// NewStuckWatchdog creates an empty watchdog.
func NewStuckWatchdog() *StuckWatchdog {
	return &StuckWatchdog{states: make(map[string]*StuckTargetState)}
}

// RecordFailure counts a failed attempt when the gap it tried to close was meaningful.
// Returns the backoff deadline, zero if none.
func (w *StuckWatchdog) RecordFailure(mint string, gapPct float64, now time.Time, cfg WatchdogConfig) time.Time {
	if math.Abs(gapPct) < cfg.MeaningfulGapPct {
		return time.Time{}
	}

	s, ok := w.states[mint]
	if !ok {
		s = &StuckTargetState{}
		w.states[mint] = s
	}
	s.ConsecutiveFailures++
	s.LastAttemptAt = now

	if cfg.MaxFailures > 0 && s.ConsecutiveFailures >= cfg.MaxFailures {
		exp := s.ConsecutiveFailures - cfg.MaxFailures
		if cfg.MaxBackoffExponent >= 0 && exp > cfg.MaxBackoffExponent {
			exp = cfg.MaxBackoffExponent
		}
		minutes := cfg.BaseBackoffMinutes * math.Pow(2, float64(exp))
		s.BackoffUntil = now.Add(time.Duration(minutes * float64(time.Minute)))
	}
	return s.BackoffUntil
}

// RecordFill clears the counter for mint.
func (w *StuckWatchdog) RecordFill(mint string) {
	delete(w.states, mint)
}

// Suppressed reports whether mint is inside its backoff window.
func (w *StuckWatchdog) Suppressed(mint string, now time.Time) bool {
	s, ok := w.states[mint]
	return ok && now.Before(s.BackoffUntil)
}

// Failures returns the consecutive failure count for mint.
func (w *StuckWatchdog) Failures(mint string) int {
	if s, ok := w.states[mint]; ok {
		return s.ConsecutiveFailures
	}
	return 0
}

// State returns a copy of the state for mint.
func (w *StuckWatchdog) State(mint string) (StuckTargetState, bool) {
	s, ok := w.states[mint]
	if !ok {
		return StuckTargetState{}, false
	}
	return *s, true
}

// Reset drops all counters.
func (w *StuckWatchdog) Reset() {
	w.states = make(map[string]*StuckTargetState)
}
