// Package handlers provides HTTP handlers for target candidates and reconciler state.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TargetStore is the candidate store the handlers edit.
type TargetStore interface {
	GetCandidates(ctx context.Context) ([]domain.TargetCandidate, error)
	Upsert(ctx context.Context, c domain.TargetCandidate) error
	ReplaceAll(ctx context.Context, candidates []domain.TargetCandidate) error
	Delete(ctx context.Context, mint string) error
}

// StateProvider exposes the reconciler's per-mint state.
type StateProvider interface {
	AllocationState() allocation.StateSnapshot
}

// Handler handles allocation HTTP requests
type Handler struct {
	targets      TargetStore
	state        StateProvider
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(targets TargetStore, state StateProvider, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		targets:      targets,
		state:        state,
		eventManager: eventManager,
		log:          log.With().Str("handler", "allocation").Logger(),
	}
}

// RegisterRoutes mounts the allocation routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocation", func(r chi.Router) {
		r.Get("/targets", h.HandleGetTargets)
		r.Put("/targets", h.HandleReplaceTargets)
		r.Post("/targets", h.HandleUpsertTarget)
		r.Delete("/targets/{mint}", h.HandleDeleteTarget)
		r.Get("/state", h.HandleGetState)
	})
}

// HandleGetTargets returns the current candidate set
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.targets.GetCandidates(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get target candidates")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if candidates == nil {
		candidates = []domain.TargetCandidate{}
	}
	h.writeJSON(w, http.StatusOK, candidates)
}

// HandleReplaceTargets swaps the whole candidate set
func (h *Handler) HandleReplaceTargets(w http.ResponseWriter, r *http.Request) {
	var candidates []domain.TargetCandidate
	if err := json.NewDecoder(r.Body).Decode(&candidates); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for i := range candidates {
		if err := normalise(&candidates[i]); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.targets.ReplaceAll(r.Context(), candidates); err != nil {
		h.log.Error().Err(err).Msg("Failed to replace target candidates")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.emit("targets_replaced", fmt.Sprintf("count=%d", len(candidates)))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(candidates)})
}

// HandleUpsertTarget inserts or updates one candidate
func (h *Handler) HandleUpsertTarget(w http.ResponseWriter, r *http.Request) {
	var c domain.TargetCandidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := normalise(&c); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.targets.Upsert(r.Context(), c); err != nil {
		h.log.Error().Err(err).Str("mint", c.Mint).Msg("Failed to upsert target candidate")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.emit("target_upserted", c.Mint)
	h.writeJSON(w, http.StatusOK, c)
}

// HandleDeleteTarget removes one candidate
func (h *Handler) HandleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")
	if mint == "" {
		h.writeError(w, http.StatusBadRequest, "mint is required")
		return
	}

	if err := h.targets.Delete(r.Context(), mint); err != nil {
		h.log.Error().Err(err).Str("mint", mint).Msg("Failed to delete target candidate")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.emit("target_deleted", mint)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetState returns watchdog, hysteresis and liquidation-lock state
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.state.AllocationState())
}

func normalise(c *domain.TargetCandidate) error {
	c.Mint = strings.TrimSpace(c.Mint)
	if c.Mint == "" {
		return fmt.Errorf("mint is required")
	}
	if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) || c.Score < 0 {
		return fmt.Errorf("score for %s must be a non-negative number", c.Mint)
	}
	c.Lane = domain.ParseLane(string(c.Lane))
	if c.Updated.IsZero() {
		c.Updated = time.Now().UTC()
	}
	return nil
}

func (h *Handler) emit(action, detail string) {
	if h.eventManager == nil {
		return
	}
	h.eventManager.EmitTyped("allocation", &events.OperatorActionData{
		Action: action,
		Source: "api",
		Detail: detail,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
