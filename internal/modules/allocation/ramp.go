package allocation

import "math"

// Ramp curves.
const (
	RampStep = "step"
	RampSqrt = "sqrt"
)

// RampConfig controls how quickly a new target reaches its full scaled size.
type RampConfig struct {
	FloorFactor         float64
	FullConfidenceTicks int
	Curve               string
	HardCapFactor       float64 // 0 disables
}

// Factor returns the confidence multiplier after ticksObserved ticks in the target set.
func (c RampConfig) Factor(ticksObserved int) float64 {
	floor := math.Max(0, math.Min(1, c.FloorFactor))

	factor := 1.0
	if c.FullConfidenceTicks > 0 {
		progress := math.Min(1, math.Max(0, float64(ticksObserved)/float64(c.FullConfidenceTicks)))
		switch c.Curve {
		case RampSqrt:
			factor = floor + (1-floor)*math.Sqrt(progress)
		default:
			if ticksObserved < c.FullConfidenceTicks {
				factor = floor
			}
		}
	}

	if c.HardCapFactor > 0 && factor > c.HardCapFactor {
		factor = c.HardCapFactor
	}
	return factor
}

// ApplyRamp sets EffectiveTargetPct = ScaledTargetPct × factor for each target.
func ApplyRamp(targets []Target, ticksObserved map[string]int, cfg RampConfig) {
	for i := range targets {
		f := cfg.Factor(ticksObserved[targets[i].Mint])
		targets[i].RampFactor = f
		targets[i].EffectiveTargetPct = targets[i].ScaledTargetPct * f
	}
}
