package allocation

import (
	"math"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// MaxRedistributionPasses bounds the cap-then-redistribute loop.
const MaxRedistributionPasses = 5

const capEpsilon = 1e-12

// Target is one asset's allocation through the sizing stages.
// Percentages are fractions of equity.
type Target struct {
	Mint               string      `json:"mint"`
	Symbol             string      `json:"symbol,omitempty"`
	Lane               domain.Lane `json:"lane"`
	Score              float64     `json:"score"`
	CapPct             float64     `json:"cap_pct"`
	RawTargetPct       float64     `json:"raw_target_pct"`
	ScaledTargetPct    float64     `json:"scaled_target_pct"`
	EffectiveTargetPct float64     `json:"effective_target_pct"`
	RampFactor         float64     `json:"ramp_factor"`
}

func (t Target) capped() bool {
	return t.ScaledTargetPct >= t.CapPct-capEpsilon
}

// ScalingMetadata describes one scaling run.
type ScalingMetadata struct {
	SumRawTargetsPct         float64 `json:"sum_raw_targets_pct"`
	SumScaledTargetsPct      float64 `json:"sum_scaled_targets_pct"`
	ScaleFactor              float64 `json:"scale_factor"`
	ClampedCount             int     `json:"clamped_count"`
	RedistributionPassesUsed int     `json:"redistribution_passes_used"`
	TargetCount              int     `json:"target_count"`
}

// RawTargets turns scored candidates into raw targets proportional to score
// within budgetPct. Non-positive scores are dropped.
func RawTargets(candidates []domain.TargetCandidate, budgetPct float64, capFor func(domain.Lane) float64) []Target {
	var total float64
	for _, c := range candidates {
		if c.Score > 0 && !math.IsInf(c.Score, 0) {
			total += c.Score
		}
	}
	if total <= 0 || budgetPct <= 0 {
		return nil
	}

	targets := make([]Target, 0, len(candidates))
	for _, c := range candidates {
		if c.Score <= 0 || math.IsInf(c.Score, 0) {
			continue
		}
		targets = append(targets, Target{
			Mint:         c.Mint,
			Symbol:       c.Symbol,
			Lane:         c.Lane,
			Score:        c.Score,
			CapPct:       capFor(c.Lane),
			RawTargetPct: c.Score / total * budgetPct,
		})
	}
	return targets
}

// ScaleTargets clamps every target to its cap and then redistributes the budget
// freed by capped assets across uncapped ones, scaling them up proportionally.
// It never scales down, uses at most maxPasses passes and stops as soon as a
// pass caps no new asset.
func ScaleTargets(targets []Target, budgetPct float64, maxPasses int) ([]Target, ScalingMetadata) {
	if maxPasses <= 0 || maxPasses > MaxRedistributionPasses {
		maxPasses = MaxRedistributionPasses
	}

	out := make([]Target, len(targets))
	raw := make([]float64, len(targets))
	for i, t := range targets {
		t.ScaledTargetPct = math.Min(t.RawTargetPct, t.CapPct)
		if t.ScaledTargetPct < 0 {
			t.ScaledTargetPct = 0
		}
		out[i] = t
		raw[i] = t.RawTargetPct
	}

	meta := ScalingMetadata{
		SumRawTargetsPct: floats.Sum(raw),
		ScaleFactor:      1,
		TargetCount:      len(out),
	}

	for meta.RedistributionPassesUsed < maxPasses {
		var cappedSum, uncappedSum float64
		for _, t := range out {
			if t.capped() {
				cappedSum += t.ScaledTargetPct
			} else {
				uncappedSum += t.ScaledTargetPct
			}
		}
		if uncappedSum <= 0 {
			break
		}

		factor := (budgetPct - cappedSum) / uncappedSum
		if factor <= 1 {
			break
		}

		meta.RedistributionPassesUsed++
		meta.ScaleFactor *= factor

		newlyCapped := 0
		for i := range out {
			if out[i].capped() {
				continue
			}
			scaled := out[i].ScaledTargetPct * factor
			if scaled >= out[i].CapPct {
				scaled = out[i].CapPct
				newlyCapped++
			}
			out[i].ScaledTargetPct = scaled
		}
		if newlyCapped == 0 {
			break
		}
	}

	scaled := make([]float64, len(out))
	for i, t := range out {
		scaled[i] = t.ScaledTargetPct
		if t.capped() {
			meta.ClampedCount++
		}
	}
	meta.SumScaledTargetsPct = floats.Sum(scaled)

	return out, meta
}
