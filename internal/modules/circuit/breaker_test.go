package circuit

import (
	"testing"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	testingpkg "github.com/cstahmer1/solana-trading-bot-sub001/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func newTestBreaker(t *testing.T) (*Breaker, *StateRepository, chan events.Event) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	t.Cleanup(cleanup)

	repo := NewStateRepository(db.Conn(), quietLogger())
	bus := events.NewBus(quietLogger())
	sub := bus.Subscribe("test", 16)
	b := NewBreaker(repo, events.NewManager(bus, quietLogger()), quietLogger())
	b.Load()
	return b, repo, sub
}

func drain(ch chan events.Event) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestBreaker_TripEmitsOnceAndPersists(t *testing.T) {
	b, repo, sub := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	b.Refresh("t2", testConfig, time.UTC, Observation{Now: day.Add(time.Minute), EquityUSD: 880, Trusted: true})
	b.Refresh("t3", testConfig, time.UTC, Observation{Now: day.Add(2 * time.Minute), EquityUSD: 870, Trusted: true})

	evs := drain(sub)
	require.Len(t, evs, 1)
	assert.Equal(t, events.CircuitTransition, evs[0].Type)
	assert.Equal(t, "t2", evs[0].TickID)
	assert.Equal(t, ReasonDrawdown, evs[0].Reason)

	saved, err := repo.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.Paused)
	assert.Equal(t, ReasonDrawdown, saved.PauseReason)
	assert.Equal(t, 870.0, saved.MinEquityUSD)
}

func TestBreaker_UntrustedObservationSkipsUpdate(t *testing.T) {
	b, _, sub := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	s := b.Refresh("t2", testConfig, time.UTC, Observation{Now: day, EquityUSD: 100, Trusted: false})

	assert.False(t, s.Paused)
	assert.Equal(t, 1000.0, s.MinEquityUSD)
	assert.Empty(t, drain(sub))
}

func TestBreaker_DayRolloverYieldsFreshCircuit(t *testing.T) {
	b, _, _ := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	b.RecordTurnover(500)
	b.Refresh("t2", testConfig, time.UTC, Observation{Now: day, EquityUSD: 800, Trusted: true})
	require.True(t, b.Paused())

	s := b.Refresh("t3", testConfig, time.UTC, Observation{Now: day.Add(24 * time.Hour), EquityUSD: 800, Trusted: true})
	assert.False(t, s.Paused)
	assert.Equal(t, "2026-05-02", s.DayKey)
	assert.Equal(t, 800.0, s.StartEquityUSD)
	assert.Zero(t, s.TurnoverUSD)
}

func TestBreaker_RolloverWhileUntrustedDefersStartEquity(t *testing.T) {
	b, _, _ := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 0, 5, 0, 0, time.UTC)

	s := b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 10, Trusted: false})
	assert.Zero(t, s.StartEquityUSD)

	s = b.Refresh("t2", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	assert.Equal(t, 1000.0, s.StartEquityUSD)
	assert.False(t, s.Paused)
}

func TestBreaker_ResetClearsTripStateAndEmits(t *testing.T) {
	b, repo, sub := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.False(t, b.Reset("t0", "operator_reset", time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true}))

	b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	b.RecordTurnover(3000)
	b.Refresh("t2", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	require.True(t, b.Paused())
	drain(sub)

	obs := Observation{Now: day.Add(time.Minute), EquityUSD: 990, RealizedPnLUSD: -50, Trusted: true}
	assert.True(t, b.Reset("t3", "operator_reset", time.UTC, obs))
	assert.False(t, b.Paused())

	evs := drain(sub)
	require.Len(t, evs, 1)
	data, ok := evs[0].Data.(*events.CircuitTransitionData)
	require.True(t, ok)
	assert.False(t, data.Paused)
	assert.Equal(t, "operator_reset", data.Reason)
	assert.Zero(t, data.TurnoverUSD)
	assert.Equal(t, 990.0, data.StartEquityUSD)

	// unchanged limits do not re-trip on the same tick
	s := b.Refresh("t3", testConfig, time.UTC, obs)
	assert.False(t, s.Paused)
	assert.Empty(t, drain(sub))

	saved, err := repo.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, saved.Paused)
	assert.Zero(t, saved.TurnoverUSD)
	assert.Equal(t, -50.0, saved.RealizedBaseUSD)
}

func TestBreaker_UntrustedResetDefersStartEquity(t *testing.T) {
	b, _, _ := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	b.Refresh("t2", testConfig, time.UTC, Observation{Now: day, EquityUSD: 850, Trusted: true})
	require.True(t, b.Paused())

	assert.True(t, b.Reset("t3", "operator_reset", time.UTC, Observation{Now: day, EquityUSD: 5, Trusted: false}))
	assert.Zero(t, b.Snapshot().StartEquityUSD)

	s := b.Refresh("t4", testConfig, time.UTC, Observation{Now: day, EquityUSD: 850, Trusted: true})
	assert.False(t, s.Paused)
	assert.Equal(t, 850.0, s.StartEquityUSD)
}

func TestBreaker_TripEventCarriesDrawdown(t *testing.T) {
	b, _, sub := newTestBreaker(t)
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	b.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, Trusted: true})
	b.Refresh("t2", testConfig, time.UTC, Observation{Now: day, EquityUSD: 880, Trusted: true})

	evs := drain(sub)
	require.Len(t, evs, 1)
	data, ok := evs[0].Data.(*events.CircuitTransitionData)
	require.True(t, ok)
	assert.True(t, data.Paused)
	assert.InDelta(t, 0.12, data.DrawdownPct, 1e-12)
	assert.Equal(t, 880.0, data.EquityUSD)
}

func TestBreaker_RestoresPauseAfterRestart(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	defer cleanup()
	repo := NewStateRepository(db.Conn(), quietLogger())
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	first := NewBreaker(repo, nil, quietLogger())
	first.Load()
	first.Refresh("t1", testConfig, time.UTC, Observation{Now: day, EquityUSD: 1000, RealizedPnLUSD: -200, Trusted: true})
	require.True(t, first.Paused())

	second := NewBreaker(repo, nil, quietLogger())
	second.Load()
	assert.True(t, second.Paused())

	s := second.Refresh("t2", testConfig, time.UTC, Observation{Now: day.Add(time.Hour), EquityUSD: 1000, Trusted: true})
	assert.True(t, s.Paused)
	assert.Equal(t, ReasonRealizedLoss, s.PauseReason)
}

func TestStateRepository_LoadEmpty(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	defer cleanup()

	s, err := NewStateRepository(db.Conn(), quietLogger()).Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}
