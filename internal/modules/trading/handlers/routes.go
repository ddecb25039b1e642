package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleGetTrades)
		r.Get("/daily", h.HandleGetDaily) // Realized PnL and turnover for one circuit day
		r.Get("/{id}", h.HandleGetTrade)
	})
}
