package settings

import "github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"

// SettingDefaults holds the default value of every engine setting.
// Percentages are fractions (0.80 = 80%) except the *_exit_impact_pct keys,
// which are percentage points as reported by the quote provider.
var SettingDefaults = map[string]interface{}{
	// Controller
	"tick_interval_seconds":     30.0,    // Seconds between ticks
	"trading_mode":              "paper", // "paper" or "live"
	"manual_pause":              0.0,     // 1.0 = operator pause of all trading
	"quote_timeout_seconds":     10.0,    // Per-quote timeout
	"execution_timeout_seconds": 45.0,    // Per-execution timeout
	"max_concurrent_quotes":     4.0,     // Exit-liquidity checks in flight

	// Reserve and wallet
	"reserve_mints":   domain.NativeMint + "," + domain.USDCMint,
	"min_reserve_sol": 0.05, // Below min_reserve_sol + fee_buffer_sol => lowReserveMode
	"fee_buffer_sol":  0.02,

	// Circuit breaker
	"max_daily_drawdown_pct":   0.10, // Trip at 10% intraday drawdown or realized loss
	"max_turnover_pct_per_day": 3.0,  // Trip when turnover reaches 3x equity
	"circuit_timezone":         "UTC",

	// Price coverage
	"equity_coverage_threshold":    0.75,
	"execution_coverage_threshold": 0.60,

	// Allocation scaling
	"deployment_budget_pct":     0.80,
	"scout_max_per_asset_pct":   0.03,
	"core_max_per_asset_pct":    0.12,
	"max_total_exposure_pct":    0.90,
	"max_redistribution_passes": 5.0,

	// Ramp
	"ramp_floor_factor":          0.5,
	"ramp_full_confidence_ticks": 10.0,
	"ramp_curve":                 "sqrt", // "sqrt" or "step"
	"ramp_hard_cap_factor":       0.0,    // 0 disables the hard cap

	// Drift-to-trade
	"no_churn_band_pct":      0.005,
	"min_trade_usd":          10.0,
	"trade_cooldown_seconds": 300.0,
	"max_single_swap_usd":    500.0,
	"allow_scout_topup":      0.0, // 0.0 = open scout positions are probes and not topped up

	// Sell hysteresis (target-drop sells only)
	"min_hold_minutes":    30.0,
	"sell_debounce_ticks": 3.0,
	"min_trim_usd":        10.0,

	// Stuck-target watchdog
	"stuck_max_failures":         3.0,
	"stuck_meaningful_gap_pct":   0.01,
	"stuck_base_backoff_minutes": 5.0,
	"stuck_max_backoff_exponent": 6.0,

	// Protective exits
	"stop_loss_pct": 0.30, // Exit when value falls 30% below cost basis

	// Exit liquidity
	"exit_liquidity_enabled":    1.0,
	"exit_haircut":              0.90,
	"slippage_bps":              100.0,
	"scout_min_round_trip":      0.90,
	"core_min_round_trip":       0.94,
	"scout_max_exit_impact_pct": 3.0, // Percentage points, as reported by the quote provider
	"core_max_exit_impact_pct":  1.5,
	"scout_max_route_hops":      3.0,
	"core_max_route_hops":       2.0,
	"route_deny_mints":          "",

	// Fee governor
	"fee_ratio_scout":         0.002,
	"fee_ratio_core":          0.001,
	"fee_ladder":              "1,2,4,8",
	"fee_safety_haircut":      0.9,
	"fee_min_entry_lamports":  10000.0,
	"fee_min_exit_lamports":   50000.0,
	"fee_max_scout_lamports":  200000.0,
	"fee_max_core_lamports":   1000000.0,
	"fee_ratio_guard_enabled": 1.0,
	"fee_hard_cap_ratio":      0.01,
	"fee_guard_enforce":       0.0, // 1.0 = honour skipRecommended instead of logging it
}

// StringSettings lists settings stored as free text rather than numbers.
var StringSettings = map[string]bool{
	"trading_mode":     true,
	"reserve_mints":    true,
	"circuit_timezone": true,
	"ramp_curve":       true,
	"route_deny_mints": true,
	"fee_ladder":       true,
}

// SettingDescriptions holds human-readable descriptions for settings shown by the API.
var SettingDescriptions = map[string]string{
	"tick_interval_seconds":        "Seconds between controller ticks; changes apply on the next tick",
	"trading_mode":                 "paper simulates fills against the ledger, live submits to the executor",
	"manual_pause":                 "Operator pause; blocks new entries, rebalance sells and protective exits",
	"reserve_mints":                "Comma-separated reserve asset mints",
	"max_daily_drawdown_pct":       "Intraday drawdown or realized loss fraction that trips the circuit",
	"max_turnover_pct_per_day":     "Daily turnover as a multiple of equity that trips the circuit",
	"equity_coverage_threshold":    "Minimum price coverage for equity to be trusted by the circuit breaker",
	"execution_coverage_threshold": "Minimum price coverage for new entries",
	"deployment_budget_pct":        "Fraction of equity the allocation scales toward",
	"fee_guard_enforce":            "Skip trades whose priority fee exceeds the hard per-leg ratio",
	"route_deny_mints":             "Intermediate route mints that disqualify an exit path",
}

// SettingUpdate represents a setting value update request
type SettingUpdate struct {
	Value interface{} `json:"value"`
}
