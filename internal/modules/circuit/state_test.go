package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{MaxDailyDrawdownPct: 0.10, MaxTurnoverPctPerDay: 3.0}

func TestNewState(t *testing.T) {
	s := NewState("2026-01-02", 1000)

	assert.Equal(t, "2026-01-02", s.DayKey)
	assert.Equal(t, 1000.0, s.StartEquityUSD)
	assert.Equal(t, 1000.0, s.MinEquityUSD)
	assert.Zero(t, s.TurnoverUSD)
	assert.False(t, s.Paused)
}

func TestUpdate_MinEquityNeverIncreases(t *testing.T) {
	s := NewState("d", 1000)
	for _, equity := range []float64{990, 1200, 950, 980, 1100, 949.5, 2000} {
		before := s.MinEquityUSD
		s.Update(equity, 0)
		assert.LessOrEqual(t, s.MinEquityUSD, before)
	}
	assert.Equal(t, 949.5, s.MinEquityUSD)
}

func TestCheck_Drawdown(t *testing.T) {
	s := NewState("d", 1000)
	now := time.Now()

	s.Update(905, 0)
	assert.Nil(t, s.Check(testConfig, 905, 0, now))
	assert.False(t, s.Paused)

	s.Update(900, 0)
	tr := s.Check(testConfig, 900, 0, now)
	require.NotNil(t, tr)
	assert.True(t, tr.Paused)
	assert.Equal(t, ReasonDrawdown, tr.Reason)
	assert.Equal(t, ReasonDrawdown, s.PauseReason)
	assert.Equal(t, now, s.LastPauseChange)
}

func TestCheck_DrawdownUsesIntradayLowAfterRecovery(t *testing.T) {
	s := NewState("d", 1000)
	s.Update(880, 0)
	s.Update(1050, 0)

	tr := s.Check(testConfig, 1050, 0, time.Now())
	require.NotNil(t, tr)
	assert.Equal(t, ReasonDrawdown, tr.Reason)
}

func TestCheck_RealizedLossIndependentOfDrawdown(t *testing.T) {
	s := NewState("d", 1000)
	s.Update(1000, -100)

	tr := s.Check(testConfig, 1000, -100, time.Now())
	require.NotNil(t, tr)
	assert.Equal(t, ReasonRealizedLoss, tr.Reason)
}

func TestCheck_RealizedGainNeverTrips(t *testing.T) {
	s := NewState("d", 1000)
	s.Update(1000, 500)
	assert.Nil(t, s.Check(testConfig, 1000, 500, time.Now()))
}

func TestCheck_Turnover(t *testing.T) {
	s := NewState("d", 1000)
	s.RecordTurnover(2999)
	assert.Nil(t, s.Check(testConfig, 1000, 0, time.Now()))

	s.RecordTurnover(1)
	tr := s.Check(testConfig, 1000, 0, time.Now())
	require.NotNil(t, tr)
	assert.Equal(t, ReasonTurnover, tr.Reason)
}

func TestCheck_FirstSatisfiedConditionWins(t *testing.T) {
	s := NewState("d", 1000)
	s.RecordTurnover(10000)
	s.Update(800, -500)

	tr := s.Check(testConfig, 800, -500, time.Now())
	require.NotNil(t, tr)
	assert.Equal(t, ReasonDrawdown, tr.Reason)
}

func TestCheck_TransitionIsOneShot(t *testing.T) {
	s := NewState("d", 1000)
	s.Update(850, 0)

	require.NotNil(t, s.Check(testConfig, 850, 0, time.Now()))
	for i := 0; i < 3; i++ {
		assert.Nil(t, s.Check(testConfig, 850, 0, time.Now()))
	}
	assert.True(t, s.Paused)
}

func TestCheck_PauseSticksWhenConditionsRecover(t *testing.T) {
	s := NewState("d", 1000)
	s.Update(850, 0)
	require.NotNil(t, s.Check(testConfig, 850, 0, time.Now()))

	s.Update(1200, 100)
	assert.Nil(t, s.Check(testConfig, 1200, 100, time.Now()))
	assert.True(t, s.Paused)
	assert.Equal(t, ReasonDrawdown, s.PauseReason)
}

func TestCheck_ZeroStartEquityDisablesLossChecks(t *testing.T) {
	s := NewState("d", 0)
	s.Update(0, -50)
	assert.Nil(t, s.Check(testConfig, 0, -50, time.Now()))
	assert.False(t, s.Paused)
}

func TestClear_LeavesTurnoverAndMinEquity(t *testing.T) {
	s := NewState("d", 1000)
	s.RecordTurnover(250)
	s.Update(850, 0)
	require.NotNil(t, s.Check(testConfig, 850, 0, time.Now()))

	tr := s.Clear("operator_reset", time.Now())
	require.NotNil(t, tr)
	assert.False(t, tr.Paused)
	assert.Equal(t, "operator_reset", tr.Reason)
	assert.False(t, s.Paused)
	assert.Empty(t, s.PauseReason)
	assert.Equal(t, 250.0, s.TurnoverUSD)
	assert.Equal(t, 850.0, s.MinEquityUSD)

	assert.Nil(t, s.Clear("again", time.Now()))
}

func TestReset_StartsDayOverFromEquity(t *testing.T) {
	s := NewState("d", 1000)
	s.RecordTurnover(3000)
	s.Update(850, -40)
	require.NotNil(t, s.Check(testConfig, 850, -40, time.Now()))

	now := time.Now()
	tr := s.Reset("d", 850, -40, "operator_reset", now)
	require.NotNil(t, tr)
	assert.False(t, tr.Paused)
	assert.Equal(t, "operator_reset", tr.Reason)
	assert.False(t, s.Paused)
	assert.Empty(t, s.PauseReason)
	assert.Equal(t, now, s.LastPauseChange)
	assert.Zero(t, s.TurnoverUSD)
	assert.Equal(t, 850.0, s.StartEquityUSD)
	assert.Equal(t, 850.0, s.MinEquityUSD)

	// same equity and realized PnL no longer trip anything
	assert.Nil(t, s.Check(testConfig, 850, -40, now))

	assert.Nil(t, s.Reset("d", 850, -40, "again", now))
}

func TestReset_RealizedLossMeasuredFromBaseline(t *testing.T) {
	s := NewState("d", 1000)
	s.Reset("d", 1000, -150, "operator_reset", time.Now())

	s.Update(1000, -240)
	assert.Nil(t, s.Check(testConfig, 1000, -240, time.Now()))

	s.Update(1000, -250)
	tr := s.Check(testConfig, 1000, -250, time.Now())
	require.NotNil(t, tr)
	assert.Equal(t, ReasonRealizedLoss, tr.Reason)
}

func TestCheck_ExactLimitsTrip(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		start    float64
		equity   float64
		realized float64
		turnover float64
		want     string
	}{
		{"drawdown 10 of 1000", testConfig, 1000, 900, 0, 0, ReasonDrawdown},
		{"drawdown 7 of 100", Config{MaxDailyDrawdownPct: 0.07}, 100, 93, 0, 0, ReasonDrawdown},
		{"drawdown 30 of 300", Config{MaxDailyDrawdownPct: 0.1}, 300, 270, 0, 0, ReasonDrawdown},
		{"realized loss 100 of 1000", testConfig, 1000, 1000, -100, 0, ReasonRealizedLoss},
		{"realized loss 0.3 of 3", Config{MaxDailyDrawdownPct: 0.1}, 3, 3, -0.3, 0, ReasonRealizedLoss},
		{"turnover 0.3x of 10", Config{MaxTurnoverPctPerDay: 0.3}, 10, 10, 0, 3, ReasonTurnover},
		{"just under the drawdown limit", testConfig, 1000, 900.01, 0, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState("d", tc.start)
			s.RecordTurnover(tc.turnover)
			s.Update(tc.equity, tc.realized)

			tr := s.Check(tc.cfg, tc.equity, tc.realized, time.Now())
			if tc.want == "" {
				assert.Nil(t, tr)
				return
			}
			require.NotNil(t, tr)
			assert.Equal(t, tc.want, tr.Reason)
		})
	}
}

func TestDrawdownPct(t *testing.T) {
	assert.Zero(t, NewState("d", 0).DrawdownPct())

	s := NewState("d", 1000)
	s.Update(750, 0)
	assert.InDelta(t, 0.25, s.DrawdownPct(), 1e-12)
}

func TestRebase_OnlyWhenUnset(t *testing.T) {
	s := NewState("d", 0)
	s.Rebase(500)
	assert.Equal(t, 500.0, s.StartEquityUSD)
	assert.Equal(t, 500.0, s.MinEquityUSD)

	s.Rebase(900)
	assert.Equal(t, 500.0, s.StartEquityUSD)
}

func TestDayKeyAndBounds(t *testing.T) {
	ts := time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-04", DayKey(ts, nil))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", DayKey(ts, tokyo))

	start, end := DayBounds(ts, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
