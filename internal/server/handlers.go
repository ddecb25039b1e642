package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/controller"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/telemetry"
)

// HealthResponse reports process and storage health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	LastTickID    string            `json:"last_tick_id,omitempty"`
	LastTickAt    *time.Time        `json:"last_tick_at,omitempty"`
	Databases     map[string]string `json:"databases"`
}

// handleHealth handles health check requests. Any failing database makes the
// response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Service:       "trade-admission-engine",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Databases:     make(map[string]string, len(s.databases)),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	for _, db := range s.databases {
		if err := db.QuickCheck(ctx); err != nil {
			s.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			resp.Databases[db.Name()] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Databases[db.Name()] = "ok"
	}

	if s.engine != nil {
		if st := s.engine.Status(); st.TickID != "" {
			at := st.StartedAt
			resp.LastTickID = st.TickID
			resp.LastTickAt = &at
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

// handleStatus returns the summary of the last completed tick
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Status()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tick":             st,
		"pending_commands": s.engine.PendingCommands(),
	})
}

// handleCircuit returns the persisted circuit state
func (s *Server) handleCircuit(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Circuit())
}

// handleControl queues pause, resume or reset for the next tick boundary
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	cmd, err := controller.ParseCommand(chi.URLParam(r, "command"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	source := "api"
	if reqID := r.Header.Get("X-Request-Id"); reqID != "" {
		source = "api:" + reqID
	}

	if err := s.engine.Submit(cmd, source); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, controller.ErrCommandQueueFull) {
			status = http.StatusTooManyRequests
		}
		s.writeError(w, status, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"command":          cmd,
		"status":           "queued",
		"pending_commands": s.engine.PendingCommands(),
	})
}

// handleTelemetry handles GET /api/telemetry?type=&limit=
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		s.writeError(w, http.StatusServiceUnavailable, "telemetry store not configured")
		return
	}

	eventType := r.URL.Query().Get("type")
	if eventType != "" {
		if _, ok := events.ParseEventType(eventType); !ok {
			s.writeError(w, http.StatusBadRequest, "unknown event type "+strconv.Quote(eventType))
			return
		}
	}

	limit := telemetry.DefaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.telemetry.Query(r.Context(), eventType, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to query telemetry")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
