package gates

import (
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
)

// Gate names reported in GlobalGates.ActiveGateNames, in evaluation order.
const (
	GateManualPause        = "manualPause"
	GateRiskPaused         = "riskPaused"
	GateLowReserveMode     = "lowReserveMode"
	GatePriceCoverageNotOk = "priceCoverageNotOk"
)

// GlobalGates is the admission verdict for new capital-deploying actions.
type GlobalGates struct {
	ManualPause     bool     `json:"manual_pause"`
	RiskPaused      bool     `json:"risk_paused"`
	LowReserveMode  bool     `json:"low_reserve_mode"`
	PriceCoverageOk bool     `json:"price_coverage_ok"`
	ActiveGateNames []string `json:"active_gate_names"`
}

// Inputs are the signals the aggregator combines.
type Inputs struct {
	ManualPause     bool
	CircuitPaused   bool
	LowReserveMode  bool
	PriceCoverageOk bool
}

// Aggregate combines the gate inputs. A gate name is listed iff its gate blocks.
func Aggregate(in Inputs) GlobalGates {
	g := GlobalGates{
		ManualPause:     in.ManualPause,
		RiskPaused:      in.CircuitPaused,
		LowReserveMode:  in.LowReserveMode,
		PriceCoverageOk: in.PriceCoverageOk,
		ActiveGateNames: []string{},
	}
	if g.ManualPause {
		g.ActiveGateNames = append(g.ActiveGateNames, GateManualPause)
	}
	if g.RiskPaused {
		g.ActiveGateNames = append(g.ActiveGateNames, GateRiskPaused)
	}
	if g.LowReserveMode {
		g.ActiveGateNames = append(g.ActiveGateNames, GateLowReserveMode)
	}
	if !g.PriceCoverageOk {
		g.ActiveGateNames = append(g.ActiveGateNames, GatePriceCoverageNotOk)
	}
	return g
}

// AllowsEntries reports whether new buys and top-ups are admissible.
func (g GlobalGates) AllowsEntries() bool {
	return len(g.ActiveGateNames) == 0
}

// AllowsProtectiveExits reports whether protective exits may run.
// Only an operator pause blocks them.
func (g GlobalGates) AllowsProtectiveExits() bool {
	return !g.ManualPause
}

// LowReserve reports whether the reserve balance is at or below minReserve + feeBuffer.
func LowReserve(balanceLamports uint64, minReserveSOL, feeBufferSOL float64) bool {
	return balanceLamports <= utils.ToBaseUnits(minReserveSOL+feeBufferSOL, domain.NativeDecimals)
}
