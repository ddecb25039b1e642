package settings

import (
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
)

// EngineSettings is the typed settings snapshot read at the start of every tick.
type EngineSettings struct {
	TickInterval     time.Duration
	TradingMode      string
	ManualPause      bool
	QuoteTimeout     time.Duration
	ExecutionTimeout time.Duration
	MaxConcurrency   int

	ReserveMints  []string
	MinReserveSOL float64
	FeeBufferSOL  float64

	MaxDailyDrawdownPct  float64
	MaxTurnoverPctPerDay float64
	CircuitTimezone      string

	EquityCoverageThreshold    float64
	ExecutionCoverageThreshold float64

	DeploymentBudgetPct     float64
	ScoutMaxPerAssetPct     float64
	CoreMaxPerAssetPct      float64
	MaxTotalExposurePct     float64
	MaxRedistributionPasses int

	RampFloorFactor         float64
	RampFullConfidenceTicks int
	RampCurve               string
	RampHardCapFactor       float64

	NoChurnBandPct   float64
	MinTradeUSD      float64
	TradeCooldown    time.Duration
	MaxSingleSwapUSD float64
	AllowScoutTopUp  bool

	MinHold           time.Duration
	SellDebounceTicks int
	MinTrimUSD        float64

	StuckMaxFailures        int
	StuckMeaningfulGapPct   float64
	StuckBaseBackoffMinutes float64
	StuckMaxBackoffExponent int

	StopLossPct float64

	ExitLiquidityEnabled  bool
	ExitHaircut           float64
	SlippageBps           int
	ScoutMinRoundTrip     float64
	CoreMinRoundTrip      float64
	ScoutMaxExitImpactPct float64
	CoreMaxExitImpactPct  float64
	ScoutMaxRouteHops     int
	CoreMaxRouteHops      int
	RouteDenyMints        []string

	FeeRatioScout        float64
	FeeRatioCore         float64
	FeeLadder            []float64
	FeeSafetyHaircut     float64
	FeeMinEntryLamports  int64
	FeeMinExitLamports   int64
	FeeMaxScoutLamports  int64
	FeeMaxCoreLamports   int64
	FeeRatioGuardEnabled bool
	FeeHardCapRatio      float64
	FeeGuardEnforce      bool
}

// Live reports whether trades go to the live execution layer.
func (e EngineSettings) Live() bool {
	return e.TradingMode == "live"
}

// DefaultEngineSettings returns the snapshot produced by an empty settings table.
func DefaultEngineSettings() EngineSettings {
	return reader{stored: map[string]string{}}.engineSettings()
}

func (r reader) engineSettings() EngineSettings {
	ladder := utils.ParseFloatCSV(r.getString("fee_ladder"))
	if len(ladder) == 0 {
		ladder = []float64{1}
	}

	return EngineSettings{
		TickInterval:     time.Duration(r.getFloat("tick_interval_seconds") * float64(time.Second)),
		TradingMode:      r.getString("trading_mode"),
		ManualPause:      r.getBool("manual_pause"),
		QuoteTimeout:     time.Duration(r.getFloat("quote_timeout_seconds") * float64(time.Second)),
		ExecutionTimeout: time.Duration(r.getFloat("execution_timeout_seconds") * float64(time.Second)),
		MaxConcurrency:   r.getInt("max_concurrent_quotes"),

		ReserveMints:  utils.ParseCSV(r.getString("reserve_mints")),
		MinReserveSOL: r.getFloat("min_reserve_sol"),
		FeeBufferSOL:  r.getFloat("fee_buffer_sol"),

		MaxDailyDrawdownPct:  r.getFloat("max_daily_drawdown_pct"),
		MaxTurnoverPctPerDay: r.getFloat("max_turnover_pct_per_day"),
		CircuitTimezone:      r.getString("circuit_timezone"),

		EquityCoverageThreshold:    r.getFloat("equity_coverage_threshold"),
		ExecutionCoverageThreshold: r.getFloat("execution_coverage_threshold"),

		DeploymentBudgetPct:     r.getFloat("deployment_budget_pct"),
		ScoutMaxPerAssetPct:     r.getFloat("scout_max_per_asset_pct"),
		CoreMaxPerAssetPct:      r.getFloat("core_max_per_asset_pct"),
		MaxTotalExposurePct:     r.getFloat("max_total_exposure_pct"),
		MaxRedistributionPasses: r.getInt("max_redistribution_passes"),

		RampFloorFactor:         r.getFloat("ramp_floor_factor"),
		RampFullConfidenceTicks: r.getInt("ramp_full_confidence_ticks"),
		RampCurve:               r.getString("ramp_curve"),
		RampHardCapFactor:       r.getFloat("ramp_hard_cap_factor"),

		NoChurnBandPct:   r.getFloat("no_churn_band_pct"),
		MinTradeUSD:      r.getFloat("min_trade_usd"),
		TradeCooldown:    time.Duration(r.getFloat("trade_cooldown_seconds") * float64(time.Second)),
		MaxSingleSwapUSD: r.getFloat("max_single_swap_usd"),
		AllowScoutTopUp:  r.getBool("allow_scout_topup"),

		MinHold:           time.Duration(r.getFloat("min_hold_minutes") * float64(time.Minute)),
		SellDebounceTicks: r.getInt("sell_debounce_ticks"),
		MinTrimUSD:        r.getFloat("min_trim_usd"),

		StuckMaxFailures:        r.getInt("stuck_max_failures"),
		StuckMeaningfulGapPct:   r.getFloat("stuck_meaningful_gap_pct"),
		StuckBaseBackoffMinutes: r.getFloat("stuck_base_backoff_minutes"),
		StuckMaxBackoffExponent: r.getInt("stuck_max_backoff_exponent"),

		StopLossPct: r.getFloat("stop_loss_pct"),

		ExitLiquidityEnabled:  r.getBool("exit_liquidity_enabled"),
		ExitHaircut:           r.getFloat("exit_haircut"),
		SlippageBps:           r.getInt("slippage_bps"),
		ScoutMinRoundTrip:     r.getFloat("scout_min_round_trip"),
		CoreMinRoundTrip:      r.getFloat("core_min_round_trip"),
		ScoutMaxExitImpactPct: r.getFloat("scout_max_exit_impact_pct"),
		CoreMaxExitImpactPct:  r.getFloat("core_max_exit_impact_pct"),
		ScoutMaxRouteHops:     r.getInt("scout_max_route_hops"),
		CoreMaxRouteHops:      r.getInt("core_max_route_hops"),
		RouteDenyMints:        utils.ParseCSV(r.getString("route_deny_mints")),

		FeeRatioScout:        r.getFloat("fee_ratio_scout"),
		FeeRatioCore:         r.getFloat("fee_ratio_core"),
		FeeLadder:            ladder,
		FeeSafetyHaircut:     r.getFloat("fee_safety_haircut"),
		FeeMinEntryLamports:  int64(r.getFloat("fee_min_entry_lamports")),
		FeeMinExitLamports:   int64(r.getFloat("fee_min_exit_lamports")),
		FeeMaxScoutLamports:  int64(r.getFloat("fee_max_scout_lamports")),
		FeeMaxCoreLamports:   int64(r.getFloat("fee_max_core_lamports")),
		FeeRatioGuardEnabled: r.getBool("fee_ratio_guard_enabled"),
		FeeHardCapRatio:      r.getFloat("fee_hard_cap_ratio"),
		FeeGuardEnforce:      r.getBool("fee_guard_enforce"),
	}
}
