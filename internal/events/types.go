// Package events carries typed engine decisions to in-process subscribers.
package events

// EventType identifies a kind of engine event.
type EventType string

const (
	CircuitTransition  EventType = "CIRCUIT_TRANSITION"
	GateDecision       EventType = "GATE_DECISION"
	ScalingPass        EventType = "SCALING_PASS"
	BindingConstraint  EventType = "BINDING_CONSTRAINT"
	TradeSuppressed    EventType = "TRADE_SUPPRESSED"
	FeeDecision        EventType = "FEE_DECISION"
	ExitLiquidity      EventType = "EXIT_LIQUIDITY"
	TradeOutcome       EventType = "TRADE_OUTCOME"
	TickCompleted      EventType = "TICK_COMPLETED"
	InvariantViolation EventType = "INVARIANT_VIOLATION"
	OperatorAction     EventType = "OPERATOR_ACTION"
)

// AllEventTypes lists every event type in emission order within a tick.
var AllEventTypes = []EventType{
	CircuitTransition,
	GateDecision,
	ScalingPass,
	BindingConstraint,
	TradeSuppressed,
	FeeDecision,
	ExitLiquidity,
	TradeOutcome,
	TickCompleted,
	InvariantViolation,
	OperatorAction,
}

// ParseEventType returns the event type named s, or false if unknown.
func ParseEventType(s string) (EventType, bool) {
	for _, t := range AllEventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
