package allocation

import (
	"math"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
)

// Drift gate suppression reasons.
const (
	ReasonWithinBand    = "within_band"
	ReasonBelowMinTrade = "below_min_trade"
	ReasonCooldown      = "cooldown"
)

// DriftConfig holds the drift-to-trade thresholds.
type DriftConfig struct {
	NoChurnBandPct float64
	MinTradeUSD    float64
	Cooldown       time.Duration
}

// DriftDecision is the drift gate verdict for one asset.
type DriftDecision struct {
	Trade       bool
	Side        domain.Side
	DriftPct    float64 // effective − current
	NotionalUSD float64
	Reason      string // set when Trade is false
}

// EvaluateDrift decides whether the gap between effective and current allocation
// is worth trading.
func EvaluateDrift(effectivePct, currentPct, equityUSD float64, lastTrade, now time.Time, cfg DriftConfig) DriftDecision {
	drift := effectivePct - currentPct
	d := DriftDecision{
		DriftPct:    drift,
		NotionalUSD: math.Abs(drift) * equityUSD,
		Side:        domain.SideBuy,
	}
	if drift < 0 {
		d.Side = domain.SideSell
	}

	switch {
	case math.Abs(drift) <= cfg.NoChurnBandPct:
		d.Reason = ReasonWithinBand
	case d.NotionalUSD <= cfg.MinTradeUSD:
		d.Reason = ReasonBelowMinTrade
	case !lastTrade.IsZero() && cfg.Cooldown > 0 && now.Sub(lastTrade) < cfg.Cooldown:
		d.Reason = ReasonCooldown
	default:
		d.Trade = true
	}
	return d
}
