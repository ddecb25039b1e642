package settings

import (
	"fmt"
	"time"
)

// Validate returns configuration anomalies as human-readable warnings.
// Anomalies never block trading; they are logged at startup and on change.
func Validate(e EngineSettings) []string {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if e.TickInterval < time.Second {
		warn("tick_interval_seconds=%v is below 1s", e.TickInterval.Seconds())
	}
	if e.TradingMode != "paper" && e.TradingMode != "live" {
		warn("trading_mode=%q is not paper or live; paper is assumed", e.TradingMode)
	}
	if len(e.ReserveMints) == 0 {
		warn("reserve_mints is empty; coverage ignores reserve assets")
	}

	if e.MaxDailyDrawdownPct <= 0 || e.MaxDailyDrawdownPct >= 1 {
		warn("max_daily_drawdown_pct=%v outside (0, 1)", e.MaxDailyDrawdownPct)
	}
	if e.MaxTurnoverPctPerDay <= 0 {
		warn("max_turnover_pct_per_day=%v disables the turnover trip", e.MaxTurnoverPctPerDay)
	}
	if _, err := time.LoadLocation(e.CircuitTimezone); err != nil {
		warn("circuit_timezone=%q is not a valid location; UTC is used", e.CircuitTimezone)
	}

	if e.ExecutionCoverageThreshold > e.EquityCoverageThreshold {
		warn("execution_coverage_threshold=%v exceeds equity_coverage_threshold=%v",
			e.ExecutionCoverageThreshold, e.EquityCoverageThreshold)
	}
	for name, v := range map[string]float64{
		"equity_coverage_threshold":    e.EquityCoverageThreshold,
		"execution_coverage_threshold": e.ExecutionCoverageThreshold,
		"deployment_budget_pct":        e.DeploymentBudgetPct,
		"max_total_exposure_pct":       e.MaxTotalExposurePct,
		"ramp_floor_factor":            e.RampFloorFactor,
		"exit_haircut":                 e.ExitHaircut,
		"fee_safety_haircut":           e.FeeSafetyHaircut,
	} {
		if v < 0 || v > 1 {
			warn("%s=%v outside [0, 1]", name, v)
		}
	}

	if e.ScoutMaxPerAssetPct > e.CoreMaxPerAssetPct {
		warn("scout_max_per_asset_pct=%v exceeds core_max_per_asset_pct=%v", e.ScoutMaxPerAssetPct, e.CoreMaxPerAssetPct)
	}
	if e.MaxRedistributionPasses < 1 || e.MaxRedistributionPasses > 5 {
		warn("max_redistribution_passes=%d outside [1, 5]; clamped", e.MaxRedistributionPasses)
	}
	if e.RampCurve != "sqrt" && e.RampCurve != "step" {
		warn("ramp_curve=%q is not sqrt or step; step is assumed", e.RampCurve)
	}
	if e.RampHardCapFactor < 0 || e.RampHardCapFactor > 1 {
		warn("ramp_hard_cap_factor=%v outside [0, 1]", e.RampHardCapFactor)
	}
	if e.MinTradeUSD > e.MaxSingleSwapUSD {
		warn("min_trade_usd=%v exceeds max_single_swap_usd=%v; no buy can pass", e.MinTradeUSD, e.MaxSingleSwapUSD)
	}

	if e.ScoutMinRoundTrip > 1 || e.CoreMinRoundTrip > 1 {
		warn("round-trip minimums above 1.0 reject every route")
	}
	if e.FeeMinEntryLamports > e.FeeMaxScoutLamports || e.FeeMinExitLamports > e.FeeMaxScoutLamports {
		warn("fee minimums exceed fee_max_scout_lamports; the maximum wins")
	}
	for i, m := range e.FeeLadder {
		if m <= 0 {
			warn("fee_ladder[%d]=%v is not positive", i, m)
		}
		if i > 0 && m < e.FeeLadder[i-1] {
			warn("fee_ladder is not non-decreasing at index %d", i)
		}
	}
	if e.FeeHardCapRatio <= 0 && e.FeeRatioGuardEnabled {
		warn("fee_hard_cap_ratio=%v with the ratio guard enabled flags every trade", e.FeeHardCapRatio)
	}

	return warnings
}
