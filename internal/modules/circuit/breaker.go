package circuit

import (
	"sync"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/rs/zerolog"
)

// StateStore persists the circuit between restarts.
type StateStore interface {
	Load() (*State, error)
	Save(s State) error
}

// Observation is one tick's equity input to the breaker.
type Observation struct {
	Now            time.Time
	EquityUSD      float64
	RealizedPnLUSD float64
	// Trusted is false when price coverage is below the equity threshold. Untrusted
	// observations roll the day over but never move minimum equity or trip the circuit.
	Trusted bool
}

// Breaker owns the current circuit. Refresh is called by the tick; Reset and
// RecordTurnover are called by the tick's operator-command and execution stages.
type Breaker struct {
	mu     sync.Mutex
	state  State
	store  StateStore
	events *events.Manager
	log    zerolog.Logger
}

// NewBreaker creates a breaker. store and eventManager may be nil.
func NewBreaker(store StateStore, eventManager *events.Manager, log zerolog.Logger) *Breaker {
	return &Breaker{
		store:  store,
		events: eventManager,
		log:    log.With().Str("service", "circuit_breaker").Logger(),
	}
}

// Load restores the persisted circuit. A load failure starts from an empty circuit.
func (b *Breaker) Load() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store == nil {
		return
	}
	s, err := b.store.Load()
	if err != nil {
		b.log.Warn().Err(err).Msg("Failed to load circuit state, starting fresh")
		return
	}
	if s != nil {
		b.state = *s
		b.log.Info().
			Str("day", s.DayKey).
			Bool("paused", s.Paused).
			Str("reason", s.PauseReason).
			Msg("Circuit state restored")
	}
}

// Refresh rolls the day over if needed and, for trusted observations, updates
// minimum equity and evaluates the trip conditions.
func (b *Breaker) Refresh(tickID string, cfg Config, loc *time.Location, obs Observation) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	day := DayKey(obs.Now, loc)
	if b.state.DayKey != day {
		start := 0.0
		if obs.Trusted {
			start = obs.EquityUSD
		}
		prev := b.state
		b.state = NewState(day, start)
		b.log.Info().
			Str("previous_day", prev.DayKey).
			Str("day", day).
			Float64("start_equity_usd", start).
			Bool("was_paused", prev.Paused).
			Msg("Circuit rolled over to new trading day")
	}

	if !obs.Trusted {
		b.log.Debug().Str("day", day).Msg("Equity untrusted, circuit update skipped")
		b.persist()
		return b.state
	}

	b.state.Rebase(obs.EquityUSD)
	b.state.Update(obs.EquityUSD, obs.RealizedPnLUSD)
	if tr := b.state.Check(cfg, obs.EquityUSD, obs.RealizedPnLUSD, obs.Now); tr != nil {
		b.log.Warn().
			Str("reason", tr.Reason).
			Float64("equity_usd", obs.EquityUSD).
			Float64("start_equity_usd", b.state.StartEquityUSD).
			Float64("min_equity_usd", b.state.MinEquityUSD).
			Float64("realized_pnl_usd", obs.RealizedPnLUSD).
			Float64("turnover_usd", b.state.TurnoverUSD).
			Msg("Circuit breaker tripped")
		b.emit(tickID, tr, obs.EquityUSD)
	}

	b.persist()
	return b.state
}

// Reset starts the day's circuit over from the observation. A trusted observation
// becomes the new start equity and realized-loss baseline; an untrusted one leaves
// them for the next trusted Refresh. Returns true if the circuit was paused.
func (b *Breaker) Reset(tickID, reason string, loc *time.Location, obs Observation) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	start, realized := 0.0, 0.0
	if obs.Trusted {
		start, realized = obs.EquityUSD, obs.RealizedPnLUSD
	}
	prev := b.state
	tr := b.state.Reset(DayKey(obs.Now, loc), start, realized, reason, obs.Now)
	b.log.Info().
		Str("reason", reason).
		Bool("was_paused", prev.Paused).
		Str("previous_reason", prev.PauseReason).
		Float64("previous_turnover_usd", prev.TurnoverUSD).
		Float64("start_equity_usd", start).
		Msg("Circuit breaker reset")
	if tr != nil {
		b.emit(tickID, tr, obs.EquityUSD)
	}
	b.persist()
	return tr != nil
}

// RecordTurnover adds filled notional to the day's turnover.
func (b *Breaker) RecordTurnover(usd float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.RecordTurnover(usd)
	b.persist()
}

// Snapshot returns a copy of the current circuit.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Paused reports whether the circuit is paused.
func (b *Breaker) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Paused
}

func (b *Breaker) emit(tickID string, tr *Transition, equity float64) {
	if b.events == nil {
		return
	}
	b.events.EmitTick(tickID, "circuit", &events.CircuitTransitionData{
		Paused:         tr.Paused,
		Reason:         tr.Reason,
		DayKey:         b.state.DayKey,
		StartEquityUSD: b.state.StartEquityUSD,
		MinEquityUSD:   b.state.MinEquityUSD,
		DrawdownPct:    b.state.DrawdownPct(),
		EquityUSD:      equity,
		RealizedPnLUSD: b.state.RealizedPnLUSD,
		TurnoverUSD:    b.state.TurnoverUSD,
	})
}

func (b *Breaker) persist() {
	if b.store == nil {
		return
	}
	if err := b.store.Save(b.state); err != nil {
		b.log.Warn().Err(err).Msg("Failed to persist circuit state")
	}
}
