// Package allocation sizes trade intents from discovery targets and open positions.
//
// The pipeline runs once per tick: raw targets from scores, cap-then-redistribute
// scaling, confidence ramp, drift-to-trade gate, binding-constraint resolution for
// buys, sell hysteresis for target-drop sells and the stuck-target watchdog.
package allocation

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Reconciler-level suppression reasons.
const (
	ReasonUnpriced         = "unpriced"
	ReasonEntriesGated     = "entries_gated"
	ReasonStopLoss         = "stop_loss"
	ReasonLiquidationRetry = "liquidation_retry"
)

// Config holds every threshold the reconciler uses. Percentages are fractions of equity.
type Config struct {
	DeploymentBudgetPct     float64
	ScoutMaxPerAssetPct     float64
	CoreMaxPerAssetPct      float64
	MaxTotalExposurePct     float64
	MaxRedistributionPasses int
	MaxSingleSwapUSD        float64
	AllowScoutTopUp         bool
	StopLossPct             float64

	Ramp       RampConfig
	Drift      DriftConfig
	Hysteresis HysteresisConfig
	Watchdog   WatchdogConfig
}

// CapFor returns the per-asset cap for a lane.
func (c Config) CapFor(lane domain.Lane) float64 {
	if lane == domain.LaneCore {
		return c.CoreMaxPerAssetPct
	}
	return c.ScoutMaxPerAssetPct
}

// Input is one tick's view of the portfolio.
type Input struct {
	Now          time.Time
	EquityUSD    float64
	Positions    []domain.Position
	Prices       map[string]float64
	Candidates   []domain.TargetCandidate
	AllowEntries bool
	ActiveGates  []string
	Exclude      map[string]bool // reserve mints never traded as targets
}

// Suppression is a triggered trade that was not attempted.
type Suppression struct {
	Mint      string            `json:"mint"`
	Side      domain.Side       `json:"side"`
	Kind      domain.IntentKind `json:"kind"`
	Reason    string            `json:"reason"`
	DriftPct  float64           `json:"drift_pct"`
	AmountUSD float64           `json:"amount_usd"`
}

// BindingRecord is the binding-constraint outcome for one buy.
type BindingRecord struct {
	Mint       string        `json:"mint"`
	DesiredUSD float64       `json:"desired_usd"`
	Result     BindingResult `json:"result"`
}

// Plan is the reconciler's output for a tick.
type Plan struct {
	Targets    []Target             `json:"targets"`
	Scaling    ScalingMetadata      `json:"scaling"`
	Intents    []domain.TradeIntent `json:"intents"`
	Suppressed []Suppression        `json:"suppressed"`
	Bindings   []BindingRecord      `json:"bindings"`
	Triggered  []string             `json:"triggered"`
}

// Unaccounted returns triggered mints with neither an intent nor a suppression.
func (p Plan) Unaccounted() []string {
	seen := make(map[string]bool, len(p.Intents)+len(p.Suppressed))
	for _, i := range p.Intents {
		seen[i.Mint] = true
	}
	for _, s := range p.Suppressed {
		seen[s.Mint] = true
	}
	var missing []string
	for _, m := range p.Triggered {
		if !seen[m] {
			missing = append(missing, m)
		}
	}
	return missing
}

// Reconciler owns the per-mint state that survives between ticks: sell hysteresis,
// the stuck-target watchdog, failed-sell counts, ramp tick counts, last-trade times
// and liquidation locks.
// The tick is the only writer; the mutex lets the API read snapshots concurrently.
type Reconciler struct {
	mu            sync.Mutex
	hysteresis    *SellHysteresis
	watchdog      *StuckWatchdog
	sellFailures  map[string]int
	ticksObserved map[string]int
	lastTrade     map[string]time.Time
	locks         map[string]bool
	log           zerolog.Logger
}

// NewReconciler creates a reconciler with empty state.
func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{
		hysteresis:    NewSellHysteresis(),
		watchdog:      NewStuckWatchdog(),
		sellFailures:  make(map[string]int),
		ticksObserved: make(map[string]int),
		lastTrade:     make(map[string]time.Time),
		locks:         make(map[string]bool),
		log:           log.With().Str("service", "allocation_reconciler").Logger(),
	}
}

// ResetAll clears stuck-target and hysteresis state in one step.
func (r *Reconciler) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchdog.Reset()
	r.sellFailures = make(map[string]int)
	r.hysteresis.Reset()
	r.log.Info().Msg("Stuck-target and hysteresis state reset")
}

// Attempt returns the attempt number for the next buy of mint.
func (r *Reconciler) Attempt(mint string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watchdog.Failures(mint) + 1
}

// SellAttempt returns the attempt number for the next sell of mint.
func (r *Reconciler) SellAttempt(mint string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sellFailures[mint] + 1
}

// Locked reports whether mint is under a liquidation lock.
func (r *Reconciler) Locked(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locks[mint]
}

// ProtectiveExits returns full-position sells for positions at or below their
// stop-loss and for positions already under a liquidation lock. Each exited mint
// is locked against buys until the position is gone.
func (r *Reconciler) ProtectiveExits(in Input, cfg Config) []domain.TradeIntent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var intents []domain.TradeIntent
	for _, pos := range in.Positions {
		if in.Exclude[pos.Mint] || pos.Quantity <= 0 {
			continue
		}
		price := in.Prices[pos.Mint]
		if !priced(price) {
			continue
		}
		value := pos.ValueUSD(price)

		reason := ""
		switch {
		case r.locks[pos.Mint] || pos.Liquidating:
			reason = ReasonLiquidationRetry
		case cfg.StopLossPct > 0 && pos.CostBasisUSD > 0 && value <= pos.CostBasisUSD*(1-cfg.StopLossPct):
			reason = ReasonStopLoss
		default:
			continue
		}

		r.locks[pos.Mint] = true
		currentPct := 0.0
		if in.EquityUSD > 0 {
			currentPct = value / in.EquityUSD
		}
		intents = append(intents, domain.TradeIntent{
			ID:         uuid.NewString(),
			Mint:       pos.Mint,
			Side:       domain.SideSell,
			Lane:       pos.Lane,
			Kind:       domain.IntentProtectiveExit,
			AmountUSD:  value,
			CurrentPct: currentPct,
			DriftPct:   -currentPct,
			Reason:     reason,
			Urgency:    domain.UrgencyHigh,
			Attempt:    r.sellFailures[pos.Mint] + 1,
			CloseAll:   true,
		})

		r.log.Warn().
			Str("mint", pos.Mint).
			Str("reason", reason).
			Float64("value_usd", value).
			Float64("cost_basis_usd", pos.CostBasisUSD).
			Msg("Protective exit")
	}
	return intents
}

// Reconcile sizes this tick's rebalance intents.
func (r *Reconciler) Reconcile(in Input, cfg Config) Plan {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan := Plan{
		Intents:    []domain.TradeIntent{},
		Suppressed: []Suppression{},
		Bindings:   []BindingRecord{},
		Triggered:  []string{},
	}

	positions := make(map[string]domain.Position, len(in.Positions))
	for _, p := range in.Positions {
		if in.Exclude[p.Mint] || p.Quantity <= 0 {
			continue
		}
		positions[p.Mint] = p
	}
	for mint := range r.locks {
		if _, held := positions[mint]; !held {
			delete(r.locks, mint)
		}
	}

	candidates := make([]domain.TargetCandidate, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		if c.Mint == "" || in.Exclude[c.Mint] {
			continue
		}
		candidates = append(candidates, c)
	}

	raw := RawTargets(candidates, cfg.DeploymentBudgetPct, cfg.CapFor)
	targets, meta := ScaleTargets(raw, cfg.DeploymentBudgetPct, cfg.MaxRedistributionPasses)
	r.observeTicks(targets)
	ApplyRamp(targets, r.ticksObserved, cfg.Ramp)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Score > targets[j].Score })
	plan.Targets = targets
	plan.Scaling = meta

	if in.EquityUSD <= 0 {
		r.log.Warn().Float64("equity_usd", in.EquityUSD).Msg("Non-positive equity, nothing to reconcile")
		return plan
	}

	totalExposure := 0.0
	for mint, p := range positions {
		if price := in.Prices[mint]; priced(price) {
			totalExposure += p.ValueUSD(price)
		}
	}

	byMint := make(map[string]Target, len(targets))
	order := make([]string, 0, len(targets)+len(positions))
	for _, t := range targets {
		byMint[t.Mint] = t
		order = append(order, t.Mint)
	}
	var dropped []string
	for mint := range positions {
		if _, ok := byMint[mint]; !ok {
			dropped = append(dropped, mint)
		}
	}
	sort.Strings(dropped)
	order = append(order, dropped...)

	plannedBuys := 0.0
	for _, mint := range order {
		target, isTarget := byMint[mint]
		pos, held := positions[mint]
		price := in.Prices[mint]

		if held && !priced(price) {
			r.log.Debug().Str("mint", mint).Msg("Held position unpriced, skipped")
			continue
		}

		currentValue := 0.0
		if held {
			currentValue = pos.ValueUSD(price)
		}
		currentPct := currentValue / in.EquityUSD
		effective := 0.0
		if isTarget {
			effective = target.EffectiveTargetPct
		}

		if held {
			if !pos.OpenedAt.IsZero() {
				r.hysteresis.RecordEntry(mint, pos.OpenedAt)
			}
			r.hysteresis.Observe(mint, effective, currentPct)
		}

		lastTrade := r.lastTrade[mint]
		if held && pos.LastTradeAt.After(lastTrade) {
			lastTrade = pos.LastTradeAt
		}

		d := EvaluateDrift(effective, currentPct, in.EquityUSD, lastTrade, in.Now, cfg.Drift)
		kind := domain.IntentRebalanceBuy
		if d.Side == domain.SideSell {
			kind = domain.IntentTargetDropSell
		}
		if !d.Trade {
			if d.Reason != ReasonWithinBand {
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, d.Reason, d.DriftPct, d.NotionalUSD))
			}
			continue
		}
		plan.Triggered = append(plan.Triggered, mint)

		lane := target.Lane
		if !isTarget {
			lane = pos.Lane
		}

		intent := domain.TradeIntent{
			Mint:       mint,
			Side:       d.Side,
			Lane:       lane,
			Kind:       kind,
			TargetPct:  effective,
			CurrentPct: currentPct,
			DriftPct:   d.DriftPct,
			Urgency:    domain.UrgencyNormal,
			Attempt:    r.watchdog.Failures(mint) + 1,
		}
		if d.Side == domain.SideSell {
			intent.Attempt = r.sellFailures[mint] + 1
		}

		if d.Side == domain.SideBuy {
			if r.watchdog.Suppressed(mint, in.Now) {
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, ReasonStuckBackoff, d.DriftPct, d.NotionalUSD))
				continue
			}
			if !priced(price) {
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, ReasonUnpriced, d.DriftPct, d.NotionalUSD))
				continue
			}
			if !in.AllowEntries {
				reason := ReasonEntriesGated
				if len(in.ActiveGates) > 0 {
					reason += ":" + strings.Join(in.ActiveGates, "+")
				}
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, reason, d.DriftPct, d.NotionalUSD))
				continue
			}

			res := ResolveBinding(BindingInput{
				DesiredUSD:           d.NotionalUSD,
				RemainingMintCapUSD:  target.CapPct*in.EquityUSD - currentValue,
				RemainingTotalCapUSD: cfg.MaxTotalExposurePct*in.EquityUSD - totalExposure - plannedBuys,
				MaxSingleSwapUSD:     cfg.MaxSingleSwapUSD,
				MinTradeUSD:          cfg.Drift.MinTradeUSD,
				LiquidationLock:      r.locks[mint],
				NoProbeTopUp:         held && pos.Lane == domain.LaneScout && lane == domain.LaneScout && !cfg.AllowScoutTopUp,
			})
			plan.Bindings = append(plan.Bindings, BindingRecord{Mint: mint, DesiredUSD: d.NotionalUSD, Result: res})
			if res.Blocked() {
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, res.Reason(), d.DriftPct, d.NotionalUSD))
				continue
			}

			intent.AmountUSD = res.AmountUSD
			intent.Reason = res.Reason()
			if intent.Reason == "" {
				intent.Reason = "rebalance"
			}
			plannedBuys += res.AmountUSD
		} else {
			if r.locks[mint] {
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, OverrideLiquidationLock, d.DriftPct, d.NotionalUSD))
				continue
			}

			amount := math.Min(d.NotionalUSD, currentValue)
			closeAll := effective <= 0
			if closeAll {
				amount = currentValue
			}
			if ok, reason := r.hysteresis.Evaluate(mint, amount, in.Now, cfg.Hysteresis); !ok {
				plan.Suppressed = append(plan.Suppressed, r.suppress(mint, d.Side, kind, reason, d.DriftPct, amount))
				continue
			}

			intent.AmountUSD = amount
			intent.CloseAll = closeAll
			intent.Reason = "target_drop"
		}

		intent.ID = uuid.NewString()
		plan.Intents = append(plan.Intents, intent)
	}

	r.log.Debug().
		Int("targets", len(targets)).
		Int("intents", len(plan.Intents)).
		Int("suppressed", len(plan.Suppressed)).
		Float64("scale_factor", meta.ScaleFactor).
		Int("passes", meta.RedistributionPassesUsed).
		Msg("Reconciled")

	return plan
}

func (r *Reconciler) observeTicks(targets []Target) {
	current := make(map[string]bool, len(targets))
	for _, t := range targets {
		current[t.Mint] = true
		r.ticksObserved[t.Mint]++
	}
	for mint := range r.ticksObserved {
		if !current[mint] {
			delete(r.ticksObserved, mint)
		}
	}
}

func (r *Reconciler) suppress(mint string, side domain.Side, kind domain.IntentKind, reason string, drift, amount float64) Suppression {
	e := r.log.Debug()
	if kind == domain.IntentTargetDropSell || strings.HasPrefix(reason, ReasonStuckBackoff) {
		e = r.log.Info()
	}
	e.Str("mint", mint).
		Str("side", string(side)).
		Str("kind", string(kind)).
		Str("reason", reason).
		Float64("drift_pct", drift).
		Float64("amount_usd", amount).
		Msg("Trade suppressed")

	return Suppression{Mint: mint, Side: side, Kind: kind, Reason: reason, DriftPct: drift, AmountUSD: amount}
}

// RecordOutcome folds an execution result back into per-mint state. A failed buy
// counts toward backoff when the intent's drift was meaningful. A failed sell only
// raises the next sell's attempt number.
func (r *Reconciler) RecordOutcome(intent domain.TradeIntent, outcome domain.ExecutionOutcome, now time.Time, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !outcome.Filled() {
		if intent.Side != domain.SideBuy {
			r.sellFailures[intent.Mint]++
			r.log.Warn().
				Str("mint", intent.Mint).
				Str("failure_kind", outcome.FailureKind).
				Int("failures", r.sellFailures[intent.Mint]).
				Msg("Sell attempt failed")
			return
		}
		until := r.watchdog.RecordFailure(intent.Mint, intent.DriftPct, now, cfg.Watchdog)
		e := r.log.Warn().
			Str("mint", intent.Mint).
			Str("failure_kind", outcome.FailureKind).
			Int("failures", r.watchdog.Failures(intent.Mint))
		if !until.IsZero() {
			e = e.Time("backoff_until", until)
		}
		e.Msg("Trade attempt failed")
		return
	}

	r.watchdog.RecordFill(intent.Mint)
	r.lastTrade[intent.Mint] = now

	if intent.Side == domain.SideBuy {
		r.hysteresis.RecordEntry(intent.Mint, now)
		return
	}
	delete(r.sellFailures, intent.Mint)
	if intent.CloseAll {
		r.hysteresis.Forget(intent.Mint)
		delete(r.ticksObserved, intent.Mint)
	}
}

// RecordSkipped counts an intent that was vetted out before execution
// (exit liquidity, fee guard) as a failed attempt.
func (r *Reconciler) RecordSkipped(intent domain.TradeIntent, now time.Time, cfg Config) {
	r.RecordOutcome(intent, domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: domain.FailureOther}, now, cfg)
}

// StateSnapshot is a read-only copy of the reconciler's per-mint state.
type StateSnapshot struct {
	Stuck         map[string]StuckTargetState `json:"stuck"`
	Hysteresis    map[string]HysteresisState  `json:"hysteresis"`
	TicksObserved map[string]int              `json:"ticks_observed"`
	Locks         []string                    `json:"liquidation_locks"`
}

// Snapshot copies the per-mint state.
func (r *Reconciler) Snapshot() StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := StateSnapshot{
		Stuck:         make(map[string]StuckTargetState, len(r.watchdog.states)),
		Hysteresis:    make(map[string]HysteresisState, len(r.hysteresis.states)),
		TicksObserved: make(map[string]int, len(r.ticksObserved)),
		Locks:         []string{},
	}
	for m, s := range r.watchdog.states {
		snap.Stuck[m] = *s
	}
	for m, s := range r.hysteresis.states {
		snap.Hysteresis[m] = *s
	}
	for m, n := range r.ticksObserved {
		snap.TicksObserved[m] = n
	}
	for m := range r.locks {
		snap.Locks = append(snap.Locks, m)
	}
	sort.Strings(snap.Locks)
	return snap
}

func priced(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
