package controller

import (
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/fees"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/gates"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/liquidity"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings"
)

// moduleConfig is the per-tick projection of the settings snapshot onto each module.
type moduleConfig struct {
	allocation allocation.Config
	liquidity  liquidity.Config
	fees       fees.Config
	circuit    circuit.Config
	coverage   gates.Thresholds
	location   *time.Location
}

func newModuleConfig(s settings.EngineSettings) moduleConfig {
	return moduleConfig{
		allocation: allocation.Config{
			DeploymentBudgetPct:     s.DeploymentBudgetPct,
			ScoutMaxPerAssetPct:     s.ScoutMaxPerAssetPct,
			CoreMaxPerAssetPct:      s.CoreMaxPerAssetPct,
			MaxTotalExposurePct:     s.MaxTotalExposurePct,
			MaxRedistributionPasses: s.MaxRedistributionPasses,
			MaxSingleSwapUSD:        s.MaxSingleSwapUSD,
			AllowScoutTopUp:         s.AllowScoutTopUp,
			StopLossPct:             s.StopLossPct,
			Ramp: allocation.RampConfig{
				FloorFactor:         s.RampFloorFactor,
				FullConfidenceTicks: s.RampFullConfidenceTicks,
				Curve:               s.RampCurve,
				HardCapFactor:       s.RampHardCapFactor,
			},
			Drift: allocation.DriftConfig{
				NoChurnBandPct: s.NoChurnBandPct,
				MinTradeUSD:    s.MinTradeUSD,
				Cooldown:       s.TradeCooldown,
			},
			Hysteresis: allocation.HysteresisConfig{
				MinHold:       s.MinHold,
				DebounceTicks: s.SellDebounceTicks,
				MinTrimUSD:    s.MinTrimUSD,
			},
			Watchdog: allocation.WatchdogConfig{
				MaxFailures:        s.StuckMaxFailures,
				MeaningfulGapPct:   s.StuckMeaningfulGapPct,
				BaseBackoffMinutes: s.StuckBaseBackoffMinutes,
				MaxBackoffExponent: s.StuckMaxBackoffExponent,
			},
		},
		liquidity: liquidity.Config{
			Enabled:     s.ExitLiquidityEnabled,
			ReserveMint: domain.NativeMint,
			Haircut:     s.ExitHaircut,
			SlippageBps: s.SlippageBps,
			Scout: liquidity.LaneLimits{
				MinRoundTrip:     s.ScoutMinRoundTrip,
				MaxExitImpactPct: s.ScoutMaxExitImpactPct,
				MaxRouteHops:     s.ScoutMaxRouteHops,
			},
			Core: liquidity.LaneLimits{
				MinRoundTrip:     s.CoreMinRoundTrip,
				MaxExitImpactPct: s.CoreMaxExitImpactPct,
				MaxRouteHops:     s.CoreMaxRouteHops,
			},
			DenyMints: s.RouteDenyMints,
		},
		fees: fees.Config{
			ScoutRatio:        s.FeeRatioScout,
			CoreRatio:         s.FeeRatioCore,
			Ladder:            s.FeeLadder,
			SafetyHaircut:     s.FeeSafetyHaircut,
			MinEntryLamports:  s.FeeMinEntryLamports,
			MinExitLamports:   s.FeeMinExitLamports,
			MaxScoutLamports:  s.FeeMaxScoutLamports,
			MaxCoreLamports:   s.FeeMaxCoreLamports,
			RatioGuardEnabled: s.FeeRatioGuardEnabled,
			HardCapRatio:      s.FeeHardCapRatio,
		},
		circuit: circuit.Config{
			MaxDailyDrawdownPct:  s.MaxDailyDrawdownPct,
			MaxTurnoverPctPerDay: s.MaxTurnoverPctPerDay,
		},
		coverage: gates.Thresholds{
			Equity:    s.EquityCoverageThreshold,
			Execution: s.ExecutionCoverageThreshold,
		},
		location: loadLocation(s.CircuitTimezone),
	}
}

// loadLocation resolves an IANA zone name, falling back to UTC.
func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
