package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
)

const (
	streamBuffer      = 256
	heartbeatInterval = 30 * time.Second
)

// EventsStreamHandler streams engine events to operators as Server-Sent Events.
type EventsStreamHandler struct {
	bus       *events.Bus
	log       zerolog.Logger
	heartbeat time.Duration
	clients   atomic.Int64
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus:       bus,
		log:       log.With().Str("component", "events_stream").Logger(),
		heartbeat: heartbeatInterval,
	}
}

// streamMessage is the JSON body of one SSE frame.
type streamMessage struct {
	ID        string      `json:"id,omitempty"`
	TickID    string      `json:"tick_id,omitempty"`
	Type      string      `json:"type"`
	Module    string      `json:"module,omitempty"`
	Mint      string      `json:"mint,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ServeHTTP handles GET /api/events/stream?types=A,B
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var allowed map[events.EventType]bool
	if raw := r.URL.Query().Get("types"); raw != "" {
		allowed = make(map[events.EventType]bool)
		for _, name := range strings.Split(raw, ",") {
			t, ok := events.ParseEventType(strings.TrimSpace(name))
			if !ok {
				http.Error(w, fmt.Sprintf("unknown event type %q", name), http.StatusBadRequest)
				return
			}
			allowed[t] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	name := fmt.Sprintf("sse_%d", h.clients.Add(1))
	ch := h.bus.Subscribe(name, streamBuffer)
	defer h.bus.Unsubscribe(ch)

	h.log.Info().Str("subscriber", name).Int("types", len(allowed)).Msg("Client connected to event stream")

	h.write(w, streamMessage{Type: "connected", Timestamp: time.Now().UTC().Format(time.RFC3339)})
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info().Str("subscriber", name).Msg("Client disconnected from event stream")
			return

		case event, ok := <-ch:
			if !ok {
				return
			}
			if allowed != nil && !allowed[event.Type] {
				continue
			}
			h.write(w, streamMessage{
				ID:        event.ID,
				TickID:    event.TickID,
				Type:      string(event.Type),
				Module:    event.Module,
				Mint:      event.Mint,
				Reason:    event.Reason,
				Timestamp: event.Timestamp.Format(time.RFC3339Nano),
				Data:      event.Data,
			})
			flusher.Flush()

		case <-heartbeat.C:
			h.write(w, streamMessage{Type: "heartbeat", Timestamp: time.Now().UTC().Format(time.RFC3339)})
			flusher.Flush()
		}
	}
}

func (h *EventsStreamHandler) write(w http.ResponseWriter, msg streamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode stream event")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
