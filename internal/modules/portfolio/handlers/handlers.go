// Package handlers provides HTTP handlers for the open-position book.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PositionReader reads open positions.
type PositionReader interface {
	GetAll(ctx context.Context) ([]domain.Position, error)
	Get(ctx context.Context, mint string) (*domain.Position, error)
}

// ReserveMintsFunc returns the configured reserve mints.
type ReserveMintsFunc func() []string

// Handler handles portfolio HTTP requests
type Handler struct {
	positions    PositionReader
	prices       domain.PriceSource
	wallet       domain.WalletOracle
	reserveMints ReserveMintsFunc
	timeout      time.Duration
	log          zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(
	positions PositionReader,
	prices domain.PriceSource,
	wallet domain.WalletOracle,
	reserveMints ReserveMintsFunc,
	timeout time.Duration,
	log zerolog.Logger,
) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		positions:    positions,
		prices:       prices,
		wallet:       wallet,
		reserveMints: reserveMints,
		timeout:      timeout,
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

// PositionView is a position marked at the current price.
type PositionView struct {
	domain.Position
	PriceUSD         float64 `json:"price_usd"`
	ValueUSD         float64 `json:"value_usd"`
	UnrealizedPnLUSD float64 `json:"unrealized_pnl_usd"`
	Priced           bool    `json:"priced"`
}

// SummaryResponse is the marked book plus per-position views.
type SummaryResponse struct {
	portfolio.Valuation
	Positions   []PositionView `json:"positions"`
	WalletError string         `json:"wallet_error,omitempty"`
	PriceError  string         `json:"price_error,omitempty"`
}

// HandleGetPositions returns the stored positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positions.GetAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get positions")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	h.writeJSON(w, http.StatusOK, positions)
}

// HandleGetPosition returns one position
func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")
	p, err := h.positions.Get(r.Context(), mint)
	if err != nil {
		h.log.Error().Err(err).Str("mint", mint).Msg("Failed to get position")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, "position not found")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// HandleGetSummary marks the book at live prices. Wallet and price failures
// degrade the response rather than failing it.
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	positions, err := h.positions.GetAll(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get positions")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := SummaryResponse{Positions: make([]PositionView, 0, len(positions))}

	var lamports uint64
	if h.wallet != nil {
		lamports, err = h.wallet.ReserveBalanceLamports(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("Wallet balance unavailable for summary")
			resp.WalletError = err.Error()
			lamports = 0
		}
	}

	mints := []string{domain.NativeMint}
	for _, p := range positions {
		mints = append(mints, p.Mint)
	}
	prices := map[string]float64{}
	if h.prices != nil {
		if got, err := h.prices.Prices(ctx, mints); err != nil {
			h.log.Warn().Err(err).Msg("Prices unavailable for summary")
			resp.PriceError = err.Error()
		} else {
			prices = got
		}
	}

	var reserves []string
	if h.reserveMints != nil {
		reserves = h.reserveMints()
	}
	resp.Valuation = portfolio.Value(lamports, positions, prices, reserves)

	for _, p := range positions {
		price := prices[p.Mint]
		view := PositionView{Position: p, PriceUSD: price, Priced: price > 0}
		if view.Priced {
			view.ValueUSD = p.ValueUSD(price)
			view.UnrealizedPnLUSD = view.ValueUSD - p.CostBasisUSD
		}
		resp.Positions = append(resp.Positions, view)
	}
	sort.Slice(resp.Positions, func(i, j int) bool {
		return resp.Positions[i].ValueUSD > resp.Positions[j].ValueUSD
	})

	h.writeJSON(w, http.StatusOK, resp)
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
