// Package handlers provides HTTP handlers for engine settings management.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service      *settings.Service
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		service:      service,
		eventManager: eventManager,
		log:          log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes mounts the settings routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Get("/descriptions", h.HandleDescriptions)
		r.Put("/{key}", h.HandleUpdate)
	})
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, all)
}

// HandleDescriptions handles GET /api/settings/descriptions
func (h *Handler) HandleDescriptions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, settings.SettingDescriptions)
}

// HandleUpdate handles PUT /api/settings/{key}. The response carries any
// consistency warnings the new configuration produces; they never block the write.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Set(key, update.Value); err != nil {
		h.log.Warn().
			Err(err).
			Str("key", key).
			Interface("value", update.Value).
			Msg("Failed to update setting")
		status := http.StatusBadRequest
		if errors.Is(err, settings.ErrUnknownSetting) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	warnings := []string{}
	if snapshot, err := h.service.Snapshot(); err != nil {
		h.log.Error().Err(err).Msg("Failed to read settings snapshot after update")
	} else if found := settings.Validate(snapshot); len(found) > 0 {
		warnings = found
		for _, msg := range warnings {
			h.log.Warn().Str("key", key).Str("warning", msg).Msg("Settings consistency warning")
		}
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped("settings", &events.OperatorActionData{
			Action: "setting_updated",
			Source: "api",
			Detail: fmt.Sprintf("%s=%v", key, update.Value),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":      key,
		"value":    update.Value,
		"warnings": warnings,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
