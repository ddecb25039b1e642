package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Event is a typed payload with its routing metadata.
type Event struct {
	ID        string    `json:"id"`
	TickID    string    `json:"tick_id,omitempty"`
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Mint      string    `json:"mint,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Bus fans events out to subscribers without blocking the publisher.
// A subscriber whose buffer is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]string
	dropped     atomic.Uint64
	log         zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[chan Event]string),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a named subscriber with the given buffer size.
func (b *Bus) Subscribe(name string, buffer int) chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subscribers[ch] = name
	count := len(b.subscribers)
	b.mu.Unlock()

	b.log.Debug().
		Str("subscriber", name).
		Int("total_subscribers", count).
		Msg("Subscriber added")
	return ch
}

// Unsubscribe removes and closes a subscriber channel. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	name, ok := b.subscribers[ch]
	if ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()

	if ok {
		b.log.Debug().Str("subscriber", name).Msg("Subscriber removed")
	}
}

// Publish delivers event to every subscriber that has buffer space.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch, name := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
			b.log.Warn().
				Str("subscriber", name).
				Str("event_type", string(event.Type)).
				Msg("Subscriber channel full, event dropped")
		}
	}
}

// Dropped returns the number of deliveries skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close unsubscribes every subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
