package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager stamps typed event data and publishes it to the bus.
type Manager struct {
	bus *Bus
	log zerolog.Logger
	now func() time.Time
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
		now: time.Now,
	}
}

// EmitTyped publishes data outside of a tick (operator actions, startup).
func (m *Manager) EmitTyped(module string, data EventData) Event {
	return m.EmitTick("", module, data)
}

// EmitTick publishes data attributed to a tick and returns the stamped event.
func (m *Manager) EmitTick(tickID, module string, data EventData) Event {
	event := Event{
		ID:        uuid.NewString(),
		TickID:    tickID,
		Type:      data.EventType(),
		Module:    module,
		Timestamp: m.now().UTC(),
		Data:      data,
	}
	if s, ok := data.(MintScoped); ok {
		event.Mint = s.EventMint()
	}
	if r, ok := data.(Reasoned); ok {
		event.Reason = r.EventReason()
	}

	if m.bus != nil {
		m.bus.Publish(event)
	}

	m.logEvent(event)
	return event
}

func (m *Manager) logEvent(event Event) {
	var e *zerolog.Event
	switch event.Type {
	case InvariantViolation:
		e = m.log.Error()
	case CircuitTransition, OperatorAction:
		e = m.log.Info()
	default:
		e = m.log.Debug()
	}

	e.Str("event_type", string(event.Type)).
		Str("module", event.Module).
		Str("tick_id", event.TickID).
		Str("mint", event.Mint).
		Str("reason", event.Reason).
		Interface("data", event.Data).
		Msg("Event emitted")
}
