package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics(events.NewBus(zerolog.Nop()), zerolog.Nop())
	now := time.Now()

	m.Observe(newEvent("1", now, &events.GateDecisionData{
		RiskPaused:  true,
		Coverage:    0.5,
		ActiveGates: []string{"riskPaused", "priceCoverageNotOk"},
	}))
	m.Observe(newEvent("2", now, &events.TradeSuppressedData{Mint: "a", Reason: "cooldown"}))
	m.Observe(newEvent("3", now, &events.TradeSuppressedData{Mint: "b", Reason: "cooldown"}))
	m.Observe(newEvent("4", now, &events.ExitLiquidityData{Mint: "a", Reason: "round_trip_below_min"}))
	m.Observe(newEvent("5", now, &events.BindingConstraintData{Mint: "a", Reason: "swap_cap"}))
	m.Observe(newEvent("6", now, &events.InvariantViolationData{Mint: "c"}))
	m.Observe(newEvent("7", now, &events.TickCompletedData{DurationMs: 120, EquityUSD: 9500}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.circuitPaused))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.coverage))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateBlocks.WithLabelValues("riskPaused")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.suppressed.WithLabelValues("cooldown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exitLiquidity.WithLabelValues("round_trip_below_min")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.binding.WithLabelValues("swap_cap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations))
	assert.Equal(t, 9500.0, testutil.ToFloat64(m.equity))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(string(events.TradeSuppressed))))

	m.Observe(newEvent("8", now, &events.CircuitTransitionData{Paused: false, Reason: "manual_clear"}))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.circuitPaused))
}

func TestMetrics_Handler(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	m := NewMetrics(bus, zerolog.Nop())
	m.Start()

	events.NewManager(bus, zerolog.Nop()).EmitTyped("fees", &events.FeeDecisionData{Lane: "scout", Side: "buy", MaxLamports: 72_000})
	m.Stop()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "engine_priority_fee_lamports_count{lane=\"scout\",side=\"buy\"} 1")
	assert.Contains(t, string(body), "engine_events_total{type=\"FEE_DECISION\"} 1")
}
