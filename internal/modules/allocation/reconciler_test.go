package allocation

import (
	"testing"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DeploymentBudgetPct:     0.8,
		ScoutMaxPerAssetPct:     0.03,
		CoreMaxPerAssetPct:      0.12,
		MaxTotalExposurePct:     0.9,
		MaxRedistributionPasses: 5,
		MaxSingleSwapUSD:        500,
		StopLossPct:             0.30,
		Ramp:                    RampConfig{FloorFactor: 1},
		Drift:                   DriftConfig{NoChurnBandPct: 0.005, MinTradeUSD: 10, Cooldown: 5 * time.Minute},
		Hysteresis:              HysteresisConfig{MinHold: 30 * time.Minute, DebounceTicks: 1, MinTrimUSD: 10},
		Watchdog:                WatchdogConfig{MaxFailures: 3, MeaningfulGapPct: 0.01, BaseBackoffMinutes: 5, MaxBackoffExponent: 6},
	}
}

func newTestReconciler() *Reconciler {
	return NewReconciler(zerolog.New(nil).Level(zerolog.Disabled))
}

var tickTime = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func baseInput() Input {
	return Input{
		Now:          tickTime,
		EquityUSD:    10000,
		Prices:       map[string]float64{"mintA": 1, "mintB": 2},
		AllowEntries: true,
		Exclude:      map[string]bool{domain.NativeMint: true},
		Candidates: []domain.TargetCandidate{
			{Mint: "mintA", Score: 1, Lane: domain.LaneCore},
			{Mint: "mintB", Score: 1, Lane: domain.LaneCore},
		},
	}
}

func findSuppression(p Plan, mint string) (Suppression, bool) {
	for _, s := range p.Suppressed {
		if s.Mint == mint {
			return s, true
		}
	}
	return Suppression{}, false
}

func TestReconcile_FreshPortfolioBuysUpToSwapCap(t *testing.T) {
	r := newTestReconciler()
	plan := r.Reconcile(baseInput(), testConfig())

	require.Len(t, plan.Targets, 2)
	assert.InDelta(t, 0.12, plan.Targets[0].ScaledTargetPct, 1e-12)
	assert.Equal(t, 2, plan.Scaling.ClampedCount)

	require.Len(t, plan.Intents, 2)
	for _, in := range plan.Intents {
		assert.Equal(t, domain.SideBuy, in.Side)
		assert.Equal(t, domain.IntentRebalanceBuy, in.Kind)
		assert.InDelta(t, 500, in.AmountUSD, 1e-9)
		assert.Equal(t, TagSwapCap, in.Reason)
		assert.Equal(t, 1, in.Attempt)
		assert.NotEmpty(t, in.ID)
	}
	assert.Empty(t, plan.Unaccounted())
	assert.ElementsMatch(t, []string{"mintA", "mintB"}, plan.Triggered)
}

func TestReconcile_EntriesGatedAreSuppressed(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.AllowEntries = false
	in.ActiveGates = []string{"riskPaused", "priceCoverageNotOk"}

	plan := r.Reconcile(in, testConfig())

	assert.Empty(t, plan.Intents)
	require.Len(t, plan.Suppressed, 2)
	assert.Equal(t, "entries_gated:riskPaused+priceCoverageNotOk", plan.Suppressed[0].Reason)
	assert.Empty(t, plan.Unaccounted())
}

func TestReconcile_ExcludesReserveMints(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.Candidates = append(in.Candidates, domain.TargetCandidate{Mint: domain.NativeMint, Score: 5, Lane: domain.LaneCore})
	in.Positions = []domain.Position{{Mint: domain.NativeMint, Quantity: 10}}
	in.Prices[domain.NativeMint] = 150

	plan := r.Reconcile(in, testConfig())

	for _, tg := range plan.Targets {
		assert.NotEqual(t, domain.NativeMint, tg.Mint)
	}
	for _, it := range plan.Intents {
		assert.NotEqual(t, domain.NativeMint, it.Mint)
	}
}

func TestReconcile_DroppedTargetSellsWholePosition(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.Candidates = nil
	in.Prices["mintC"] = 10
	in.Positions = []domain.Position{{Mint: "mintC", Quantity: 100, Lane: domain.LaneCore, OpenedAt: tickTime.Add(-2 * time.Hour)}}

	plan := r.Reconcile(in, testConfig())

	require.Len(t, plan.Intents, 1)
	sell := plan.Intents[0]
	assert.Equal(t, domain.SideSell, sell.Side)
	assert.Equal(t, domain.IntentTargetDropSell, sell.Kind)
	assert.True(t, sell.CloseAll)
	assert.InDelta(t, 1000, sell.AmountUSD, 1e-9)
	assert.Equal(t, "target_drop", sell.Reason)
}

func TestReconcile_MinHoldBlocksEarlySell(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.Candidates = nil
	in.Prices["mintC"] = 10
	in.Positions = []domain.Position{{Mint: "mintC", Quantity: 100, Lane: domain.LaneCore, OpenedAt: tickTime.Add(-5 * time.Minute)}}

	plan := r.Reconcile(in, testConfig())

	assert.Empty(t, plan.Intents)
	s, ok := findSuppression(plan, "mintC")
	require.True(t, ok)
	assert.Equal(t, ReasonMinHoldNotMet, s.Reason)
	assert.Equal(t, domain.IntentTargetDropSell, s.Kind)
	assert.Empty(t, plan.Unaccounted())
}

func TestReconcile_UnpricedHeldPositionSkipped(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.Candidates = nil
	in.Positions = []domain.Position{{Mint: "mintZ", Quantity: 100, OpenedAt: tickTime.Add(-2 * time.Hour)}}

	plan := r.Reconcile(in, testConfig())

	assert.Empty(t, plan.Intents)
	assert.Empty(t, plan.Triggered)
}

func TestReconcile_UnpricedCandidateSuppressed(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.Candidates = []domain.TargetCandidate{{Mint: "mintX", Score: 1, Lane: domain.LaneCore}}

	plan := r.Reconcile(in, testConfig())

	s, ok := findSuppression(plan, "mintX")
	require.True(t, ok)
	assert.Equal(t, ReasonUnpriced, s.Reason)
}

func TestReconcile_NoProbeTopUp(t *testing.T) {
	in := baseInput()
	in.Candidates = []domain.TargetCandidate{{Mint: "mintA", Score: 1, Lane: domain.LaneScout}}
	in.Positions = []domain.Position{{Mint: "mintA", Quantity: 100, Lane: domain.LaneScout, OpenedAt: tickTime.Add(-time.Hour)}}

	plan := newTestReconciler().Reconcile(in, testConfig())
	s, ok := findSuppression(plan, "mintA")
	require.True(t, ok)
	assert.Equal(t, OverrideNoProbeTopUp, s.Reason)

	cfg := testConfig()
	cfg.AllowScoutTopUp = true
	plan = newTestReconciler().Reconcile(in, cfg)
	require.Len(t, plan.Intents, 1)
	assert.InDelta(t, 200, plan.Intents[0].AmountUSD, 1e-9)

	// promotion to core is allowed
	in.Candidates[0].Lane = domain.LaneCore
	plan = newTestReconciler().Reconcile(in, testConfig())
	require.Len(t, plan.Intents, 1)
	assert.Equal(t, domain.LaneCore, plan.Intents[0].Lane)
}

func TestProtectiveExits_StopLossLocksMint(t *testing.T) {
	r := newTestReconciler()
	cfg := testConfig()
	in := baseInput()
	in.Candidates = []domain.TargetCandidate{{Mint: "mintD", Score: 1, Lane: domain.LaneCore}}
	in.Prices["mintD"] = 6
	in.Positions = []domain.Position{{Mint: "mintD", Quantity: 100, CostBasisUSD: 1000, Lane: domain.LaneCore}}

	exits := r.ProtectiveExits(in, cfg)
	require.Len(t, exits, 1)
	assert.Equal(t, ReasonStopLoss, exits[0].Reason)
	assert.Equal(t, domain.IntentProtectiveExit, exits[0].Kind)
	assert.Equal(t, domain.UrgencyHigh, exits[0].Urgency)
	assert.True(t, exits[0].CloseAll)
	assert.True(t, r.Locked("mintD"))

	plan := r.Reconcile(in, cfg)
	s, ok := findSuppression(plan, "mintD")
	require.True(t, ok)
	assert.Equal(t, OverrideLiquidationLock, s.Reason)

	// still held next tick: retried
	exits = r.ProtectiveExits(in, cfg)
	require.Len(t, exits, 1)
	assert.Equal(t, ReasonLiquidationRetry, exits[0].Reason)

	// position gone: lock released
	in.Positions = nil
	r.Reconcile(in, cfg)
	assert.False(t, r.Locked("mintD"))
}

func TestProtectiveExits_AboveStopLossIgnored(t *testing.T) {
	r := newTestReconciler()
	in := baseInput()
	in.Prices["mintD"] = 8
	in.Positions = []domain.Position{{Mint: "mintD", Quantity: 100, CostBasisUSD: 1000}}

	assert.Empty(t, r.ProtectiveExits(in, testConfig()))
	assert.False(t, r.Locked("mintD"))
}

func TestReconcile_WatchdogBackoffAndReset(t *testing.T) {
	r := newTestReconciler()
	cfg := testConfig()
	in := baseInput()

	plan := r.Reconcile(in, cfg)
	require.NotEmpty(t, plan.Intents)
	intent := plan.Intents[0]

	for i := 0; i < 3; i++ {
		r.RecordOutcome(intent, domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureSimulation}, tickTime, cfg)
	}
	assert.Equal(t, 4, r.Attempt(intent.Mint))

	plan = r.Reconcile(in, cfg)
	s, ok := findSuppression(plan, intent.Mint)
	require.True(t, ok)
	assert.Equal(t, ReasonStuckBackoff, s.Reason)
	assert.Empty(t, plan.Unaccounted())

	r.ResetAll()
	assert.Equal(t, 1, r.Attempt(intent.Mint))
	plan = r.Reconcile(in, cfg)
	_, ok = findSuppression(plan, intent.Mint)
	assert.False(t, ok)
}

func TestReconcile_BuyBackoffDoesNotBlockTargetDropSell(t *testing.T) {
	r := newTestReconciler()
	cfg := testConfig()
	cfg.Watchdog.MaxFailures = 1
	in := baseInput()
	in.Prices["mintC"] = 10
	in.Candidates = []domain.TargetCandidate{{Mint: "mintC", Score: 1, Lane: domain.LaneCore}}
	in.Positions = []domain.Position{{Mint: "mintC", Quantity: 10, Lane: domain.LaneCore, OpenedAt: tickTime.Add(-2 * time.Hour)}}

	plan := r.Reconcile(in, cfg)
	require.Len(t, plan.Intents, 1)
	buy := plan.Intents[0]
	require.Equal(t, domain.SideBuy, buy.Side)
	r.RecordOutcome(buy, domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureSimulation}, tickTime, cfg)

	plan = r.Reconcile(in, cfg)
	s, ok := findSuppression(plan, "mintC")
	require.True(t, ok)
	assert.Equal(t, ReasonStuckBackoff, s.Reason)

	in.Candidates = nil
	plan = r.Reconcile(in, cfg)
	require.Len(t, plan.Intents, 1)
	sell := plan.Intents[0]
	assert.Equal(t, domain.SideSell, sell.Side)
	assert.Equal(t, domain.IntentTargetDropSell, sell.Kind)
	assert.True(t, sell.CloseAll)
	assert.Equal(t, 1, sell.Attempt)
	_, ok = findSuppression(plan, "mintC")
	assert.False(t, ok)
}

func TestRecordOutcome_FailedSellSkipsWatchdog(t *testing.T) {
	r := newTestReconciler()
	cfg := testConfig()
	cfg.Watchdog.MaxFailures = 1
	sell := domain.TradeIntent{Mint: "mintC", Side: domain.SideSell, Kind: domain.IntentTargetDropSell, DriftPct: -0.05}

	r.RecordOutcome(sell, domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureSimulation}, tickTime, cfg)
	r.RecordOutcome(sell, domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureSimulation}, tickTime, cfg)

	assert.Equal(t, 1, r.Attempt("mintC"))
	assert.Equal(t, 3, r.SellAttempt("mintC"))
	assert.Empty(t, r.Snapshot().Stuck)

	r.RecordOutcome(sell, domain.ExecutionOutcome{Status: domain.ExecConfirmed, FilledUSD: 100}, tickTime, cfg)
	assert.Equal(t, 1, r.SellAttempt("mintC"))
}

func TestReconcile_CooldownAfterFill(t *testing.T) {
	r := newTestReconciler()
	cfg := testConfig()
	in := baseInput()

	plan := r.Reconcile(in, cfg)
	require.Len(t, plan.Intents, 2)
	filled := plan.Intents[0]
	r.RecordOutcome(filled, domain.ExecutionOutcome{Status: domain.ExecPaper, FilledUSD: 500}, tickTime, cfg)

	plan = r.Reconcile(in, cfg)
	s, ok := findSuppression(plan, filled.Mint)
	require.True(t, ok)
	assert.Equal(t, ReasonCooldown, s.Reason)
	require.Len(t, plan.Intents, 1)
	assert.NotEqual(t, filled.Mint, plan.Intents[0].Mint)
}

func TestReconcile_RampGrowsWithTicks(t *testing.T) {
	r := newTestReconciler()
	cfg := testConfig()
	cfg.Ramp = RampConfig{FloorFactor: 0.5, FullConfidenceTicks: 2, Curve: RampStep}
	in := baseInput()

	plan := r.Reconcile(in, cfg)
	assert.InDelta(t, 0.06, plan.Targets[0].EffectiveTargetPct, 1e-12)

	plan = r.Reconcile(in, cfg)
	assert.InDelta(t, 0.12, plan.Targets[0].EffectiveTargetPct, 1e-12)
	assert.Equal(t, 2, r.Snapshot().TicksObserved["mintA"])
}

func TestReconcile_NonPositiveEquity(t *testing.T) {
	in := baseInput()
	in.EquityUSD = 0

	plan := newTestReconciler().Reconcile(in, testConfig())
	assert.Empty(t, plan.Intents)
	assert.Empty(t, plan.Suppressed)
	assert.NotNil(t, plan.Intents)
}

func TestPlan_Unaccounted(t *testing.T) {
	p := Plan{
		Triggered:  []string{"a", "b", "c"},
		Intents:    []domain.TradeIntent{{Mint: "a"}},
		Suppressed: []Suppression{{Mint: "b"}},
	}
	assert.Equal(t, []string{"c"}, p.Unaccounted())
}
