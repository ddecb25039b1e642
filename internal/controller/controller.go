// Package controller runs the periodic admission and reconciliation tick.
//
// One tick is a fixed pipeline: operator commands, settings snapshot, equity
// snapshot, circuit refresh, target coverage, gate aggregation, protective exits,
// reconciliation, exit-liquidity vetting, fee pricing, execution and status.
// Ticks never overlap; external calls inside a tick fan out with bounded
// concurrency and their results are folded back sequentially.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/fees"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/gates"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/liquidity"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/portfolio"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrTickInProgress is returned when Tick is called while another tick runs.
var ErrTickInProgress = errors.New("tick already in progress")

// Pre-execution suppression reasons added by the controller.
const (
	ReasonExitLiquidity   = "exit_liquidity"
	ReasonFeeGuard        = "fee_guard"
	ReasonReserveUnpriced = "reserve_unpriced"
	ReasonManualPause     = "manual_pause"
)

// SettingsStore is the hot-reloadable settings source.
type SettingsStore interface {
	Snapshot() (settings.EngineSettings, error)
	Set(key string, value interface{}) error
}

// ExecutionRouter is the executor with a switchable trading mode.
type ExecutionRouter interface {
	domain.Executor
	SetMode(mode string)
}

// LiquidationMarker persists the liquidation flag of a position.
type LiquidationMarker interface {
	SetLiquidating(ctx context.Context, mint string, liquidating bool) error
}

// Deps are the controller's collaborators. Liquidations is optional.
type Deps struct {
	Settings     SettingsStore
	Positions    domain.PositionStore
	Targets      domain.TargetSource
	Prices       domain.PriceSource
	Wallet       domain.WalletOracle
	PnL          domain.RealizedPnLSource
	Executor     ExecutionRouter
	Liquidations LiquidationMarker
	Breaker      *circuit.Breaker
	Reconciler   *allocation.Reconciler
	Simulator    *liquidity.Simulator
	Fees         *fees.Governor
	Events       *events.Manager
}

// Controller owns the tick pipeline.
type Controller struct {
	settings     SettingsStore
	positions    domain.PositionStore
	targets      domain.TargetSource
	prices       domain.PriceSource
	wallet       domain.WalletOracle
	pnl          domain.RealizedPnLSource
	executor     ExecutionRouter
	liquidations LiquidationMarker
	breaker      *circuit.Breaker
	reconciler   *allocation.Reconciler
	simulator    *liquidity.Simulator
	fees         *fees.Governor
	events       *events.Manager
	log          zerolog.Logger
	now          func() time.Time

	running  atomic.Bool
	interval atomic.Int64

	cmdMu   sync.Mutex
	pending []pendingCommand

	statusMu     sync.RWMutex
	status       Status
	lastWarnings string
}

// New creates a controller.
func New(deps Deps, log zerolog.Logger) *Controller {
	return &Controller{
		settings:     deps.Settings,
		positions:    deps.Positions,
		targets:      deps.Targets,
		prices:       deps.Prices,
		wallet:       deps.Wallet,
		pnl:          deps.PnL,
		executor:     deps.Executor,
		liquidations: deps.Liquidations,
		breaker:      deps.Breaker,
		reconciler:   deps.Reconciler,
		simulator:    deps.Simulator,
		fees:         deps.Fees,
		events:       deps.Events,
		log:          log.With().Str("service", "controller").Logger(),
		now:          time.Now,
	}
}

// Interval returns the tick interval read from the last settings snapshot, or zero.
func (c *Controller) Interval() time.Duration {
	return time.Duration(c.interval.Load())
}

// tick carries the values shared by the stages of one tick.
type tick struct {
	id       string
	now      time.Time
	settings settings.EngineSettings
	cfg      moduleConfig
	status   *Status

	positions  []domain.Position
	candidates []domain.TargetCandidate
	prices     map[string]float64
	balance    uint64
	walletOk   bool
	targetsOk  bool
	valuation  portfolio.Valuation
	gates      gates.GlobalGates
	exclude    map[string]bool
	resets     []pendingCommand
}

// Tick runs one pass of the pipeline. It returns ErrTickInProgress if a tick is
// already running, and an error when the tick was aborted before reconciliation.
func (c *Controller) Tick(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrTickInProgress
	}
	defer c.running.Store(false)

	start := c.now()
	t := &tick{
		id:     uuid.NewString(),
		now:    start,
		status: &Status{StartedAt: start},
	}
	t.status.TickID = t.id

	err := c.run(ctx, t)

	t.status.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		t.status.Error = err.Error()
		c.log.Error().Err(err).Str("tick_id", t.id).Msg("Tick aborted")
	}

	c.events.EmitTick(t.id, "controller", &events.TickCompletedData{
		DurationMs:    t.status.DurationMs,
		EquityUSD:     t.status.Equity.EquityUSD,
		Coverage:      t.status.ExecutionCoverage.Coverage,
		AllowsEntries: t.status.Gates.AllowsEntries(),
		Intents:       len(t.status.Intents),
		Executed:      t.status.Executed,
		Failed:        t.status.Failed,
		Suppressed:    len(t.status.Suppressed),
		Error:         t.status.Error,
	})

	c.statusMu.Lock()
	c.status = *t.status
	c.statusMu.Unlock()

	c.log.Info().
		Str("tick_id", t.id).
		Int64("duration_ms", t.status.DurationMs).
		Float64("equity_usd", t.status.Equity.EquityUSD).
		Strs("active_gates", t.status.Gates.ActiveGateNames).
		Int("intents", len(t.status.Intents)).
		Int("executed", t.status.Executed).
		Int("failed", t.status.Failed).
		Int("suppressed", len(t.status.Suppressed)).
		Msg("Tick completed")
	return err
}

func (c *Controller) run(ctx context.Context, t *tick) error {
	c.applyCommands(t)

	if err := c.loadSettings(t); err != nil {
		c.requeue(t.resets)
		return err
	}
	if err := c.snapshotEquity(ctx, t); err != nil {
		c.requeue(t.resets)
		return err
	}
	c.refreshCircuit(ctx, t)
	c.aggregateGates(t)

	intents := c.protectiveExits(ctx, t)
	if t.targetsOk {
		intents = append(intents, c.holdWhilePaused(t, c.reconcile(t))...)
	} else {
		c.log.Warn().Str("tick_id", t.id).Msg("Targets unavailable, reconciliation skipped")
	}

	intents = c.vetExitLiquidity(ctx, t, intents)
	priced := c.priceFees(t, intents)
	c.execute(ctx, t, priced)
	t.status.Circuit = c.breaker.Snapshot()
	return nil
}

// loadSettings reads the snapshot. An unreadable settings store blocks the tick.
func (c *Controller) loadSettings(t *tick) error {
	s, err := c.settings.Snapshot()
	if err != nil {
		return fmt.Errorf("settings unavailable, trading blocked: %w", err)
	}
	t.settings = s
	t.cfg = newModuleConfig(s)
	t.status.TradingMode = s.TradingMode
	t.exclude = utils.SetOf(append([]string{domain.NativeMint}, s.ReserveMints...))

	c.interval.Store(int64(s.TickInterval))
	c.executor.SetMode(s.TradingMode)

	warnings := settings.Validate(s)
	t.status.Warnings = warnings
	joined := strings.Join(warnings, "\n")
	if joined != c.lastWarnings {
		for _, w := range warnings {
			c.log.Warn().Str("anomaly", w).Msg("Configuration anomaly")
		}
		c.lastWarnings = joined
	}
	return nil
}

// snapshotEquity loads positions, targets, reserve balance and prices.
// Positions are required; the others degrade.
func (c *Controller) snapshotEquity(ctx context.Context, t *tick) error {
	positions, err := c.positions.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}
	t.positions = positions

	candidates, err := c.targets.GetCandidates(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to load targets")
	} else {
		t.candidates = candidates
		t.targetsOk = true
	}

	balance, err := c.callWithTimeout(ctx, t.settings.QuoteTimeout, func(ctx context.Context) (uint64, error) {
		return c.wallet.ReserveBalanceLamports(ctx)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to read reserve balance")
	} else {
		t.balance = balance
		t.walletOk = true
	}

	mints := gates.MustPriceSet(reserveMints(t.settings), positionMints(t.positions), candidateMints(t.candidates))
	priceCtx, cancel := context.WithTimeout(ctx, timeoutOr(t.settings.QuoteTimeout))
	prices, err := c.prices.Prices(priceCtx, mints)
	cancel()
	if err != nil {
		c.log.Warn().Err(err).Int("mints", len(mints)).Msg("Failed to fetch prices")
		prices = map[string]float64{}
	}
	t.prices = prices

	t.valuation = portfolio.Value(t.balance, t.positions, t.prices, t.settings.ReserveMints)
	t.status.Equity = t.valuation
	return nil
}

// refreshCircuit decides equity trust from position coverage and feeds the breaker.
func (c *Controller) refreshCircuit(ctx context.Context, t *tick) {
	posCoverage := gates.ComputeCoverage(
		gates.MustPriceSet(reserveMints(t.settings), positionMints(t.positions)), t.prices)
	t.status.PositionCoverage = posCoverage

	trusted := posCoverage.EquityOk(t.cfg.coverage) && t.walletOk

	realized := 0.0
	if trusted && c.pnl != nil {
		dayStart, dayEnd := circuit.DayBounds(t.now, t.cfg.location)
		pnl, err := c.pnl.RealizedPnLUSD(ctx, dayStart, dayEnd)
		if err != nil {
			c.log.Warn().Err(err).Msg("Failed to read realized PnL, equity untrusted")
			trusted = false
		} else {
			realized = pnl
		}
	}
	t.status.EquityTrusted = trusted

	obs := circuit.Observation{
		Now:            t.now,
		EquityUSD:      t.valuation.EquityUSD,
		RealizedPnLUSD: realized,
		Trusted:        trusted,
	}
	c.applyResets(t, obs)
	t.status.Circuit = c.breaker.Refresh(t.id, t.cfg.circuit, t.cfg.location, obs)
}

func (c *Controller) aggregateGates(t *tick) {
	execCoverage := gates.ComputeCoverage(gates.MustPriceSet(
		reserveMints(t.settings), positionMints(t.positions), candidateMints(t.candidates)), t.prices)
	t.status.ExecutionCoverage = execCoverage

	lowReserve := !t.walletOk || gates.LowReserve(t.balance, t.settings.MinReserveSOL, t.settings.FeeBufferSOL)

	t.gates = gates.Aggregate(gates.Inputs{
		ManualPause:     t.settings.ManualPause,
		CircuitPaused:   t.status.Circuit.Paused,
		LowReserveMode:  lowReserve,
		PriceCoverageOk: execCoverage.ExecutionOk(t.cfg.coverage),
	})
	t.status.Gates = t.gates

	c.events.EmitTick(t.id, "gates", &events.GateDecisionData{
		ManualPause:     t.gates.ManualPause,
		RiskPaused:      t.gates.RiskPaused,
		LowReserveMode:  t.gates.LowReserveMode,
		PriceCoverageOk: t.gates.PriceCoverageOk,
		Coverage:        execCoverage.Coverage,
		MissingMints:    execCoverage.MissingMints,
		ActiveGates:     t.gates.ActiveGateNames,
		AllowsEntries:   t.gates.AllowsEntries(),
	})
}

func (c *Controller) reconcileInput(t *tick) allocation.Input {
	return allocation.Input{
		Now:          t.now,
		EquityUSD:    t.valuation.EquityUSD,
		Positions:    t.positions,
		Prices:       t.prices,
		Candidates:   t.candidates,
		AllowEntries: t.gates.AllowsEntries(),
		ActiveGates:  t.gates.ActiveGateNames,
		Exclude:      t.exclude,
	}
}

// protectiveExits runs stop-loss and liquidation-retry exits. Only manual pause blocks them.
func (c *Controller) protectiveExits(ctx context.Context, t *tick) []domain.TradeIntent {
	if !t.gates.AllowsProtectiveExits() {
		return nil
	}
	exits := c.reconciler.ProtectiveExits(c.reconcileInput(t), t.cfg.allocation)
	if c.liquidations != nil {
		for _, intent := range exits {
			if err := c.liquidations.SetLiquidating(ctx, intent.Mint, true); err != nil {
				c.log.Warn().Err(err).Str("mint", intent.Mint).Msg("Failed to persist liquidation flag")
			}
		}
	}
	return exits
}

// reconcile sizes rebalance intents, emits the allocation telemetry and checks
// that every triggered mint has an intent or a suppression reason.
func (c *Controller) reconcile(t *tick) []domain.TradeIntent {
	plan := c.reconciler.Reconcile(c.reconcileInput(t), t.cfg.allocation)
	t.status.Scaling = plan.Scaling
	t.status.Targets = plan.Targets

	c.events.EmitTick(t.id, "allocation", &events.ScalingPassData{
		SumRawTargetsPct:    plan.Scaling.SumRawTargetsPct,
		SumScaledTargetsPct: plan.Scaling.SumScaledTargetsPct,
		ScaleFactor:         plan.Scaling.ScaleFactor,
		ClampedCount:        plan.Scaling.ClampedCount,
		PassesUsed:          plan.Scaling.RedistributionPassesUsed,
		TargetCount:         len(plan.Targets),
	})
	for _, b := range plan.Bindings {
		c.events.EmitTick(t.id, "allocation", &events.BindingConstraintData{
			Mint:       b.Mint,
			DesiredUSD: b.DesiredUSD,
			FinalUSD:   b.Result.AmountUSD,
			Tags:       b.Result.Tags,
			Reason:     bindingReason(b.Result),
		})
	}
	for _, s := range plan.Suppressed {
		c.recordSuppression(t, s)
	}

	if missing := plan.Unaccounted(); len(missing) > 0 {
		t.status.Unaccounted = missing
		for _, mint := range missing {
			c.log.Error().Str("tick_id", t.id).Str("mint", mint).Msg("Triggered asset has neither an intent nor a reason")
			c.events.EmitTick(t.id, "allocation", &events.InvariantViolationData{
				Mint:   mint,
				Detail: "triggered without intent or suppression reason",
			})
		}
	}
	return plan.Intents
}

// holdWhilePaused suppresses rebalance sells under an operator pause. Buys are
// already gated by the reconciler.
func (c *Controller) holdWhilePaused(t *tick, intents []domain.TradeIntent) []domain.TradeIntent {
	if !t.gates.ManualPause {
		return intents
	}
	kept := intents[:0]
	for _, intent := range intents {
		if intent.Side == domain.SideSell {
			c.recordSuppression(t, allocation.Suppression{
				Mint:      intent.Mint,
				Side:      intent.Side,
				Kind:      intent.Kind,
				Reason:    ReasonManualPause,
				DriftPct:  intent.DriftPct,
				AmountUSD: intent.AmountUSD,
			})
			continue
		}
		kept = append(kept, intent)
	}
	return kept
}

func bindingReason(r allocation.BindingResult) string {
	if reason := r.Reason(); reason != "" {
		return reason
	}
	return "unconstrained"
}

// vetExitLiquidity simulates a round trip for every buy concurrently and drops
// the buys that fail. Sells pass through.
func (c *Controller) vetExitLiquidity(ctx context.Context, t *tick, intents []domain.TradeIntent) []domain.TradeIntent {
	solPrice := t.prices[domain.NativeMint]
	results := make([]*liquidity.Result, len(intents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(t.settings.MaxConcurrency))
	for i, intent := range intents {
		if intent.Side != domain.SideBuy || !gates.ValidPrice(solPrice) {
			continue
		}
		req := c.liquidityRequest(t, intent, solPrice)
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, 2*timeoutOr(t.settings.QuoteTimeout))
			defer cancel()
			res := c.simulator.Check(callCtx, req, t.cfg.liquidity)
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]domain.TradeIntent, 0, len(intents))
	for i, intent := range intents {
		if intent.Side != domain.SideBuy {
			kept = append(kept, intent)
			continue
		}
		if !gates.ValidPrice(solPrice) {
			c.skip(t, intent, ReasonReserveUnpriced)
			continue
		}

		res := results[i]
		c.events.EmitTick(t.id, "liquidity", &events.ExitLiquidityData{
			Mint:                   intent.Mint,
			Lane:                   string(intent.Lane),
			Ok:                     res.Ok,
			Reason:                 res.Reason,
			RoundTripRatio:         res.RoundTripRatio,
			EstimatedExitImpactPct: res.EstimatedExitImpactPct,
			RouteHops:              res.RouteHops,
			RouteMints:             res.RouteMints,
		})
		if !res.Ok {
			c.skip(t, intent, ReasonExitLiquidity+":"+res.Reason)
			continue
		}
		kept = append(kept, intent)
	}
	return kept
}

// liquidityRequest sizes a simulation in lamports. A core buy into a held scout
// position is a promotion and simulates the exit of the combined balance.
func (c *Controller) liquidityRequest(t *tick, intent domain.TradeIntent, solPrice float64) liquidity.Request {
	req := liquidity.Request{
		Mint:             intent.Mint,
		Lane:             intent.Lane,
		NotionalLamports: utils.USDToBaseUnits(intent.AmountUSD, solPrice, domain.NativeDecimals),
	}
	if intent.Lane != domain.LaneCore {
		return req
	}
	for _, p := range t.positions {
		if p.Mint != intent.Mint || p.Lane != domain.LaneScout || p.Quantity <= 0 {
			continue
		}
		req.ExistingTokens = utils.ToBaseUnits(p.Quantity, p.Decimals)
		req.ExistingValueLamports = utils.USDToBaseUnits(p.ValueUSD(t.prices[p.Mint]), solPrice, domain.NativeDecimals)
	}
	return req
}

type pricedIntent struct {
	intent domain.TradeIntent
	fee    fees.Decision
}

// priceFees prices every intent. The advisory skip is honoured only when enforced.
func (c *Controller) priceFees(t *tick, intents []domain.TradeIntent) []pricedIntent {
	solPrice := t.prices[domain.NativeMint]
	out := make([]pricedIntent, 0, len(intents))

	for _, intent := range intents {
		notional := utils.USDToBaseUnits(intent.AmountUSD, solPrice, domain.NativeDecimals)
		d := c.fees.Price(fees.Request{
			Lane:             intent.Lane,
			Side:             intent.Side,
			NotionalLamports: notional,
			Urgency:          intent.Urgency,
			Attempt:          intent.Attempt,
		}, t.cfg.fees)

		c.events.EmitTick(t.id, "fees", &events.FeeDecisionData{
			Mint:             intent.Mint,
			Lane:             string(intent.Lane),
			Side:             string(intent.Side),
			Attempt:          intent.Attempt,
			NotionalLamports: notional,
			MaxLamports:      d.MaxLamports,
			PriorityLevel:    d.PriorityLevel,
			EffectiveRatio:   d.EffectiveRatio,
			ClampedToMin:     d.ClampedToMin,
			ClampedToMax:     d.ClampedToMax,
			SkipRecommended:  d.SkipRecommended,
			Reason:           d.Reason,
		})

		if d.SkipRecommended && t.settings.FeeGuardEnforce && intent.Kind != domain.IntentProtectiveExit {
			c.skip(t, intent, ReasonFeeGuard)
			continue
		}
		out = append(out, pricedIntent{intent: intent, fee: d})
	}
	return out
}

// execute sends intents concurrently and folds outcomes back in intent order.
func (c *Controller) execute(ctx context.Context, t *tick, intents []pricedIntent) {
	outcomes := make([]domain.ExecutionOutcome, len(intents))
	errs := make([]error, len(intents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(t.settings.MaxConcurrency))
	for i, p := range intents {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, timeoutOr(t.settings.ExecutionTimeout))
			defer cancel()
			outcomes[i], errs[i] = c.executor.Execute(callCtx, p.intent, p.fee.MaxLamports)
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range intents {
		outcome := outcomes[i]
		if errs[i] != nil {
			c.log.Warn().
				Err(errs[i]).
				Str("mint", p.intent.Mint).
				Str("intent_id", p.intent.ID).
				Msg("Execution error")
			if outcome.Status == "" {
				outcome = domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureOther, Message: errs[i].Error()}
			}
		}

		c.reconciler.RecordOutcome(p.intent, outcome, t.now, t.cfg.allocation)
		if outcome.Filled() {
			t.status.Executed++
			filled := outcome.FilledUSD
			if filled <= 0 {
				filled = p.intent.AmountUSD
			}
			c.breaker.RecordTurnover(filled)
		} else {
			t.status.Failed++
		}

		t.status.Intents = append(t.status.Intents, p.intent)
		t.status.Outcomes = append(t.status.Outcomes, IntentOutcome{
			IntentID:    p.intent.ID,
			Mint:        p.intent.Mint,
			Side:        p.intent.Side,
			Kind:        p.intent.Kind,
			AmountUSD:   p.intent.AmountUSD,
			FeeLamports: p.fee.MaxLamports,
			Status:      outcome.Status,
			FailureKind: outcome.FailureKind,
			Signature:   outcome.Signature,
		})

		c.events.EmitTick(t.id, "execution", &events.TradeOutcomeData{
			IntentID:    p.intent.ID,
			Mint:        p.intent.Mint,
			Side:        string(p.intent.Side),
			Kind:        string(p.intent.Kind),
			AmountUSD:   p.intent.AmountUSD,
			Status:      string(outcome.Status),
			FailureKind: outcome.FailureKind,
			FilledUSD:   outcome.FilledUSD,
			Signature:   outcome.Signature,
		})
	}
}

// skip records a pre-execution rejection as a suppression and a failed attempt.
func (c *Controller) skip(t *tick, intent domain.TradeIntent, reason string) {
	c.reconciler.RecordSkipped(intent, t.now, t.cfg.allocation)
	c.recordSuppression(t, allocation.Suppression{
		Mint:      intent.Mint,
		Side:      intent.Side,
		Kind:      intent.Kind,
		Reason:    reason,
		DriftPct:  intent.DriftPct,
		AmountUSD: intent.AmountUSD,
	})
}

func (c *Controller) recordSuppression(t *tick, s allocation.Suppression) {
	t.status.Suppressed = append(t.status.Suppressed, s)
	c.events.EmitTick(t.id, "allocation", &events.TradeSuppressedData{
		Mint:      s.Mint,
		Side:      string(s.Side),
		Kind:      string(s.Kind),
		Reason:    s.Reason,
		DriftPct:  s.DriftPct,
		AmountUSD: s.AmountUSD,
	})
}

func (c *Controller) callWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) (uint64, error)) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeoutOr(timeout))
	defer cancel()
	return fn(callCtx)
}

func reserveMints(s settings.EngineSettings) []string {
	return append([]string{domain.NativeMint}, s.ReserveMints...)
}

func positionMints(positions []domain.Position) []string {
	mints := make([]string, 0, len(positions))
	for _, p := range positions {
		if p.Quantity > 0 {
			mints = append(mints, p.Mint)
		}
	}
	sort.Strings(mints)
	return mints
}

func candidateMints(candidates []domain.TargetCandidate) []string {
	mints := make([]string, 0, len(candidates))
	for _, c := range candidates {
		mints = append(mints, c.Mint)
	}
	return mints
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func concurrency(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
