package events

// EventData is implemented by every typed event payload.
type EventData interface {
	EventType() EventType
}

// MintScoped is implemented by payloads that concern a single mint.
type MintScoped interface {
	EventMint() string
}

// Reasoned is implemented by payloads that carry a machine-readable reason code.
type Reasoned interface {
	EventReason() string
}

// CircuitTransitionData is emitted when the circuit breaker pauses or clears.
type CircuitTransitionData struct {
	Paused         bool    `json:"paused"`
	Reason         string  `json:"reason"`
	DayKey         string  `json:"day_key"`
	StartEquityUSD float64 `json:"start_equity_usd"`
	MinEquityUSD   float64 `json:"min_equity_usd"`
	DrawdownPct    float64 `json:"drawdown_pct"`
	EquityUSD      float64 `json:"equity_usd"`
	RealizedPnLUSD float64 `json:"realized_pnl_usd"`
	TurnoverUSD    float64 `json:"turnover_usd"`
}

func (d *CircuitTransitionData) EventType() EventType { return CircuitTransition }
func (d *CircuitTransitionData) EventReason() string  { return d.Reason }

// GateDecisionData records the aggregated entry gates for a tick.
type GateDecisionData struct {
	ManualPause     bool     `json:"manual_pause"`
	RiskPaused      bool     `json:"risk_paused"`
	LowReserveMode  bool     `json:"low_reserve_mode"`
	PriceCoverageOk bool     `json:"price_coverage_ok"`
	Coverage        float64  `json:"coverage"`
	MissingMints    []string `json:"missing_mints,omitempty"`
	ActiveGates     []string `json:"active_gates"`
	AllowsEntries   bool     `json:"allows_entries"`
}

func (d *GateDecisionData) EventType() EventType { return GateDecision }

// EventReason returns the active gate names joined with "+", or "open".
func (d *GateDecisionData) EventReason() string {
	if len(d.ActiveGates) == 0 {
		return "open"
	}
	reason := d.ActiveGates[0]
	for _, g := range d.ActiveGates[1:] {
		reason += "+" + g
	}
	return reason
}

// ScalingPassData records the cap-then-redistribute result for a tick.
type ScalingPassData struct {
	SumRawTargetsPct    float64 `json:"sum_raw_targets_pct"`
	SumScaledTargetsPct float64 `json:"sum_scaled_targets_pct"`
	ScaleFactor         float64 `json:"scale_factor"`
	ClampedCount        int     `json:"clamped_count"`
	PassesUsed          int     `json:"passes_used"`
	TargetCount         int     `json:"target_count"`
}

func (d *ScalingPassData) EventType() EventType { return ScalingPass }

// BindingConstraintData records how a buy amount was limited.
type BindingConstraintData struct {
	Mint       string   `json:"mint"`
	DesiredUSD float64  `json:"desired_usd"`
	FinalUSD   float64  `json:"final_usd"`
	Tags       []string `json:"tags,omitempty"`
	Reason     string   `json:"reason"`
}

func (d *BindingConstraintData) EventType() EventType { return BindingConstraint }
func (d *BindingConstraintData) EventMint() string    { return d.Mint }
func (d *BindingConstraintData) EventReason() string  { return d.Reason }

// TradeSuppressedData records a triggered trade that was not attempted.
type TradeSuppressedData struct {
	Mint      string  `json:"mint"`
	Side      string  `json:"side"`
	Kind      string  `json:"kind"`
	Reason    string  `json:"reason"`
	DriftPct  float64 `json:"drift_pct"`
	AmountUSD float64 `json:"amount_usd"`
}

func (d *TradeSuppressedData) EventType() EventType { return TradeSuppressed }
func (d *TradeSuppressedData) EventMint() string    { return d.Mint }
func (d *TradeSuppressedData) EventReason() string  { return d.Reason }

// FeeDecisionData records a priority-fee decision.
type FeeDecisionData struct {
	Mint             string  `json:"mint"`
	Lane             string  `json:"lane"`
	Side             string  `json:"side"`
	Attempt          int     `json:"attempt"`
	NotionalLamports uint64  `json:"notional_lamports"`
	MaxLamports      int64   `json:"max_lamports"`
	PriorityLevel    string  `json:"priority_level"`
	EffectiveRatio   float64 `json:"effective_ratio"`
	ClampedToMin     bool    `json:"clamped_to_min"`
	ClampedToMax     bool    `json:"clamped_to_max"`
	SkipRecommended  bool    `json:"skip_recommended"`
	Reason           string  `json:"reason"`
}

func (d *FeeDecisionData) EventType() EventType { return FeeDecision }
func (d *FeeDecisionData) EventMint() string    { return d.Mint }
func (d *FeeDecisionData) EventReason() string  { return d.Reason }

// ExitLiquidityData records an exit-liquidity simulation.
type ExitLiquidityData struct {
	Mint                   string   `json:"mint"`
	Lane                   string   `json:"lane"`
	Ok                     bool     `json:"ok"`
	Reason                 string   `json:"reason"`
	RoundTripRatio         float64  `json:"round_trip_ratio"`
	EstimatedExitImpactPct float64  `json:"estimated_exit_impact_pct"`
	RouteHops              int      `json:"route_hops"`
	RouteMints             []string `json:"route_mints,omitempty"`
}

func (d *ExitLiquidityData) EventType() EventType { return ExitLiquidity }
func (d *ExitLiquidityData) EventMint() string    { return d.Mint }
func (d *ExitLiquidityData) EventReason() string  { return d.Reason }

// TradeOutcomeData records what the execution layer reported for an intent.
type TradeOutcomeData struct {
	IntentID    string  `json:"intent_id"`
	Mint        string  `json:"mint"`
	Side        string  `json:"side"`
	Kind        string  `json:"kind"`
	AmountUSD   float64 `json:"amount_usd"`
	Status      string  `json:"status"`
	FailureKind string  `json:"failure_kind,omitempty"`
	FilledUSD   float64 `json:"filled_usd"`
	Signature   string  `json:"signature,omitempty"`
}

func (d *TradeOutcomeData) EventType() EventType { return TradeOutcome }
func (d *TradeOutcomeData) EventMint() string    { return d.Mint }

// EventReason returns the status, or the failure kind for failed outcomes.
func (d *TradeOutcomeData) EventReason() string {
	if d.FailureKind != "" {
		return d.FailureKind
	}
	return d.Status
}

// TickCompletedData summarises one controller tick.
type TickCompletedData struct {
	DurationMs    int64   `json:"duration_ms"`
	EquityUSD     float64 `json:"equity_usd"`
	Coverage      float64 `json:"coverage"`
	AllowsEntries bool    `json:"allows_entries"`
	Intents       int     `json:"intents"`
	Executed      int     `json:"executed"`
	Failed        int     `json:"failed"`
	Suppressed    int     `json:"suppressed"`
	Error         string  `json:"error,omitempty"`
}

func (d *TickCompletedData) EventType() EventType { return TickCompleted }

// InvariantViolationData records a triggered asset with neither an intent nor a reason.
type InvariantViolationData struct {
	Mint   string `json:"mint"`
	Detail string `json:"detail"`
}

func (d *InvariantViolationData) EventType() EventType { return InvariantViolation }
func (d *InvariantViolationData) EventMint() string    { return d.Mint }

// OperatorActionData records pause, resume, reset and settings changes.
type OperatorActionData struct {
	Action string `json:"action"`
	Source string `json:"source"`
	Detail string `json:"detail,omitempty"`
}

func (d *OperatorActionData) EventType() EventType { return OperatorAction }
func (d *OperatorActionData) EventReason() string  { return d.Action }
