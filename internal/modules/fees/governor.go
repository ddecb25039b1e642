// Package fees prices the priority fee budget for a swap.
package fees

import (
	"fmt"
	"strings"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Reason parts.
const (
	ReasonBase           = "base"
	ReasonZeroNotional   = "zero_notional"
	ReasonExceedsHardCap = "exceeds_hard_cap"
)

// Config holds the fee thresholds. Ratios are per leg, fractions of notional.
type Config struct {
	ScoutRatio        float64
	CoreRatio         float64
	Ladder            []float64
	SafetyHaircut     float64
	MinEntryLamports  int64
	MinExitLamports   int64
	MaxScoutLamports  int64
	MaxCoreLamports   int64
	RatioGuardEnabled bool
	HardCapRatio      float64
}

// Request is the context of one transaction.
type Request struct {
	Lane             domain.Lane
	Side             domain.Side
	NotionalLamports uint64
	Urgency          domain.Urgency
	Attempt          int // 1-based
}

// Decision is the priced fee budget.
type Decision struct {
	MaxLamports     int64   `json:"max_lamports"`
	BaseLamports    int64   `json:"base_lamports"`
	Multiplier      float64 `json:"multiplier"`
	PriorityLevel   string  `json:"priority_level"`
	EffectiveRatio  float64 `json:"effective_ratio"`
	ClampedToMin    bool    `json:"clamped_to_min"`
	ClampedToMax    bool    `json:"clamped_to_max"`
	SkipRecommended bool    `json:"skip_recommended"`
	Reason          string  `json:"reason"`
}

// Multiplier returns the ladder step for attempt. Attempts beyond the ladder
// reuse the last step.
func (c Config) Multiplier(attempt int) float64 {
	if len(c.Ladder) == 0 {
		return 1
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(c.Ladder)-1 {
		idx = len(c.Ladder) - 1
	}
	return c.Ladder[idx]
}

func (c Config) ratio(lane domain.Lane) float64 {
	if lane == domain.LaneCore {
		return c.CoreRatio
	}
	return c.ScoutRatio
}

func (c Config) maxLamports(lane domain.Lane) int64 {
	if lane == domain.LaneCore {
		return c.MaxCoreLamports
	}
	return c.MaxScoutLamports
}

// Decide prices one transaction. It is a pure function of its inputs.
func Decide(req Request, cfg Config) Decision {
	d := Decision{
		PriorityLevel: PriorityMedium,
		Multiplier:    cfg.Multiplier(req.Attempt),
	}
	if req.Side == domain.SideSell || req.Urgency == domain.UrgencyHigh {
		d.PriorityLevel = PriorityHigh
	}

	if req.NotionalLamports == 0 {
		d.Reason = ReasonZeroNotional
		return d
	}

	haircut := cfg.SafetyHaircut
	if haircut <= 0 {
		haircut = 1
	}
	base := decimal.NewFromUint64(req.NotionalLamports).
		Mul(decimal.NewFromFloat(cfg.ratio(req.Lane))).
		Mul(decimal.NewFromFloat(d.Multiplier)).
		Mul(decimal.NewFromFloat(haircut)).
		Floor()
	d.BaseLamports = base.IntPart()
	fee := d.BaseLamports

	var reasons []string
	side := "entry"
	floor := cfg.MinEntryLamports
	if req.Side == domain.SideSell {
		side = "exit"
		floor = cfg.MinExitLamports
	}
	if floor > 0 && fee < floor {
		fee = floor
		d.ClampedToMin = true
		reasons = append(reasons, "clamped_to_min_"+side)
	}
	if ceiling := cfg.maxLamports(req.Lane); ceiling > 0 && fee > ceiling {
		fee = ceiling
		d.ClampedToMax = true
		reasons = append(reasons, fmt.Sprintf("clamped_to_max_%s", laneName(req.Lane)))
	}

	d.MaxLamports = fee
	d.EffectiveRatio = float64(fee) / float64(req.NotionalLamports)

	if cfg.RatioGuardEnabled && cfg.HardCapRatio > 0 && d.EffectiveRatio > cfg.HardCapRatio {
		d.SkipRecommended = true
		reasons = append(reasons, ReasonExceedsHardCap)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonBase)
	}
	d.Reason = strings.Join(reasons, ",")
	return d
}

func laneName(l domain.Lane) string {
	if l == domain.LaneCore {
		return string(domain.LaneCore)
	}
	return string(domain.LaneScout)
}

// Governor wraps Decide with logging.
type Governor struct {
	log zerolog.Logger
}

// NewGovernor creates a fee governor.
func NewGovernor(log zerolog.Logger) *Governor {
	return &Governor{log: log.With().Str("service", "fee_governor").Logger()}
}

// Price decides the fee for req and logs the decision.
func (g *Governor) Price(req Request, cfg Config) Decision {
	d := Decide(req, cfg)

	e := g.log.Debug()
	if d.SkipRecommended {
		e = g.log.Warn()
	}
	e.Str("lane", string(req.Lane)).
		Str("side", string(req.Side)).
		Uint64("notional_lamports", req.NotionalLamports).
		Int("attempt", req.Attempt).
		Int64("max_lamports", d.MaxLamports).
		Str("priority", d.PriorityLevel).
		Float64("effective_ratio", d.EffectiveRatio).
		Str("reason", d.Reason).
		Msg("Fee decision")
	return d
}
