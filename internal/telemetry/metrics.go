package telemetry

import (
	"net/http"
	"sync"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics translates bus events into Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	bus      *events.Bus
	log      zerolog.Logger

	events        *prometheus.CounterVec
	gateBlocks    *prometheus.CounterVec
	circuitPaused prometheus.Gauge
	coverage      prometheus.Gauge
	equity        prometheus.Gauge
	scalingPasses prometheus.Histogram
	scaleFactor   prometheus.Gauge
	binding       *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	feeLamports   *prometheus.HistogramVec
	exitLiquidity *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	violations    prometheus.Counter

	ch   chan events.Event
	done chan struct{}
	once sync.Once
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(bus *events.Bus, log zerolog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bus:      bus,
		log:      log.With().Str("component", "metrics").Logger(),
		done:     make(chan struct{}),

		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_events_total",
			Help: "Events emitted, by type",
		}, []string{"type"}),
		gateBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_gate_blocks_total",
			Help: "Ticks in which a gate blocked new entries, by gate",
		}, []string{"gate"}),
		circuitPaused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_circuit_paused",
			Help: "1 while the circuit breaker is paused",
		}),
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_price_coverage_ratio",
			Help: "Fraction of held mints with a usable price",
		}),
		equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_equity_usd",
			Help: "Equity observed on the last tick",
		}),
		scalingPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_scaling_passes",
			Help:    "Redistribution passes used per allocation",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		}),
		scaleFactor: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_scale_factor",
			Help: "Last allocation scale factor",
		}),
		binding: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_binding_constraints_total",
			Help: "Buy sizing outcomes, by binding constraint",
		}, []string{"reason"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_trades_suppressed_total",
			Help: "Triggered trades not attempted, by reason",
		}, []string{"reason"}),
		feeLamports: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engine_priority_fee_lamports",
			Help:    "Maximum priority fee chosen per transaction",
			Buckets: prometheus.ExponentialBuckets(10_000, 2, 10),
		}, []string{"lane", "side"}),
		exitLiquidity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_exit_liquidity_checks_total",
			Help: "Exit-liquidity simulations, by reason",
		}, []string{"reason"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_trade_outcomes_total",
			Help: "Execution outcomes, by status",
		}, []string{"status"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_tick_duration_seconds",
			Help:    "Controller tick duration",
			Buckets: prometheus.DefBuckets,
		}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_invariant_violations_total",
			Help: "Triggered assets with neither an intent nor a reason",
		}),
	}

	m.registry.MustRegister(
		m.events, m.gateBlocks, m.circuitPaused, m.coverage, m.equity,
		m.scalingPasses, m.scaleFactor, m.binding, m.suppressed,
		m.feeLamports, m.exitLiquidity, m.outcomes, m.tickDuration, m.violations,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Start subscribes to the bus.
func (m *Metrics) Start() {
	m.ch = m.bus.Subscribe("metrics", defaultBuffer)
	go func() {
		defer close(m.done)
		for event := range m.ch {
			m.Observe(event)
		}
	}()
}

// Stop unsubscribes and waits for the consumer to drain.
func (m *Metrics) Stop() {
	m.once.Do(func() {
		if m.ch == nil {
			close(m.done)
			return
		}
		m.bus.Unsubscribe(m.ch)
		<-m.done
	})
}

// Observe updates the collectors for one event.
func (m *Metrics) Observe(event events.Event) {
	m.events.WithLabelValues(string(event.Type)).Inc()

	switch d := event.Data.(type) {
	case *events.CircuitTransitionData:
		if d.Paused {
			m.circuitPaused.Set(1)
		} else {
			m.circuitPaused.Set(0)
		}
	case *events.GateDecisionData:
		m.coverage.Set(d.Coverage)
		for _, g := range d.ActiveGates {
			m.gateBlocks.WithLabelValues(g).Inc()
		}
		if d.RiskPaused {
			m.circuitPaused.Set(1)
		} else {
			m.circuitPaused.Set(0)
		}
	case *events.ScalingPassData:
		m.scalingPasses.Observe(float64(d.PassesUsed))
		m.scaleFactor.Set(d.ScaleFactor)
	case *events.BindingConstraintData:
		m.binding.WithLabelValues(d.Reason).Inc()
	case *events.TradeSuppressedData:
		m.suppressed.WithLabelValues(d.Reason).Inc()
	case *events.FeeDecisionData:
		m.feeLamports.WithLabelValues(d.Lane, d.Side).Observe(float64(d.MaxLamports))
	case *events.ExitLiquidityData:
		m.exitLiquidity.WithLabelValues(d.Reason).Inc()
	case *events.TradeOutcomeData:
		m.outcomes.WithLabelValues(d.Status).Inc()
	case *events.TickCompletedData:
		m.tickDuration.Observe(float64(d.DurationMs) / 1000)
		m.equity.Set(d.EquityUSD)
	case *events.InvariantViolationData:
		m.violations.Inc()
	}
}
