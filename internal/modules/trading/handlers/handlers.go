// Package handlers provides HTTP handlers for the trade ledger.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/trading"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxHistoryLimit = 500

// TradeLedger reads recorded trades and daily aggregates.
type TradeLedger interface {
	GetByID(ctx context.Context, id string) (*trading.Trade, error)
	GetHistory(ctx context.Context, mint string, limit int) ([]trading.Trade, error)
	RealizedPnLUSD(ctx context.Context, dayStart, dayEnd time.Time) (float64, error)
	TurnoverUSD(ctx context.Context, dayStart, dayEnd time.Time) (float64, error)
}

// ModeReporter reports the active trading mode.
type ModeReporter interface {
	Mode() string
}

// TradingHandlers contains HTTP handlers for trading API
type TradingHandlers struct {
	ledger   TradeLedger
	mode     ModeReporter
	location func() *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance. location
// returns the timezone daily aggregates are bucketed in.
func NewTradingHandlers(ledger TradeLedger, mode ModeReporter, location func() *time.Location, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		ledger:   ledger,
		mode:     mode,
		location: location,
		now:      time.Now,
		log:      log.With().Str("handler", "trading").Logger(),
	}
}

// DailySummary is the ledger aggregate for one circuit day.
type DailySummary struct {
	Date           string    `json:"date"`
	DayStart       time.Time `json:"day_start"`
	DayEnd         time.Time `json:"day_end"`
	RealizedPnLUSD float64   `json:"realized_pnl_usd"`
	TurnoverUSD    float64   `json:"turnover_usd"`
	TradingMode    string    `json:"trading_mode,omitempty"`
}

// HandleGetTrades handles GET /trades?mint=&limit=
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	mint := strings.TrimSpace(r.URL.Query().Get("mint"))

	trades, err := h.ledger.GetHistory(r.Context(), mint, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// HandleGetTrade handles GET /trades/{id}
func (h *TradingHandlers) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trade, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("trade_id", id).Msg("Failed to get trade")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trade == nil {
		h.writeError(w, http.StatusNotFound, "trade not found")
		return
	}
	h.writeJSON(w, http.StatusOK, trade)
}

// HandleGetDaily handles GET /trades/daily?date=YYYY-MM-DD. Without a date
// the current circuit day is used.
func (h *TradingHandlers) HandleGetDaily(w http.ResponseWriter, r *http.Request) {
	loc := time.UTC
	if h.location != nil {
		if l := h.location(); l != nil {
			loc = l
		}
	}

	at := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		at = parsed
	}
	start, end := circuit.DayBounds(at, loc)

	pnl, err := h.ledger.RealizedPnLUSD(r.Context(), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read realized PnL")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	turnover, err := h.ledger.TurnoverUSD(r.Context(), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read turnover")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary := DailySummary{
		Date:           start.Format("2006-01-02"),
		DayStart:       start,
		DayEnd:         end,
		RealizedPnLUSD: pnl,
		TurnoverUSD:    turnover,
	}
	if h.mode != nil {
		summary.TradingMode = h.mode.Mode()
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *TradingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *TradingHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
