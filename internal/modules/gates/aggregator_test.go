package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_GateNamesIffBlocking(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		in := Inputs{
			ManualPause:     mask&1 != 0,
			CircuitPaused:   mask&2 != 0,
			LowReserveMode:  mask&4 != 0,
			PriceCoverageOk: mask&8 != 0,
		}
		g := Aggregate(in)

		assert.Equal(t, in.ManualPause, contains(g.ActiveGateNames, GateManualPause))
		assert.Equal(t, in.CircuitPaused, contains(g.ActiveGateNames, GateRiskPaused))
		assert.Equal(t, in.LowReserveMode, contains(g.ActiveGateNames, GateLowReserveMode))
		assert.Equal(t, !in.PriceCoverageOk, contains(g.ActiveGateNames, GatePriceCoverageNotOk))

		allOpen := !in.ManualPause && !in.CircuitPaused && !in.LowReserveMode && in.PriceCoverageOk
		assert.Equal(t, allOpen, g.AllowsEntries())
		assert.Equal(t, !in.ManualPause, g.AllowsProtectiveExits())
	}
}

func TestAggregate_NameOrder(t *testing.T) {
	g := Aggregate(Inputs{ManualPause: true, CircuitPaused: true, LowReserveMode: true})
	assert.Equal(t, []string{GateManualPause, GateRiskPaused, GateLowReserveMode, GatePriceCoverageNotOk}, g.ActiveGateNames)
}

func TestAggregate_OpenHasEmptyNames(t *testing.T) {
	g := Aggregate(Inputs{PriceCoverageOk: true})
	assert.NotNil(t, g.ActiveGateNames)
	assert.Empty(t, g.ActiveGateNames)
	assert.True(t, g.AllowsEntries())
}

func TestLowReserve(t *testing.T) {
	// min 0.05 + buffer 0.02 = 70,000,000 lamports
	assert.True(t, LowReserve(70_000_000, 0.05, 0.02))
	assert.True(t, LowReserve(0, 0.05, 0.02))
	assert.False(t, LowReserve(70_000_001, 0.05, 0.02))
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
