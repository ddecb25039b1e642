package domain

import (
	"context"
	"errors"
	"time"
)

// Contract errors shared by the adapters and the engine.
var (
	// ErrNoRoute is returned by a QuoteProvider when no swap route exists.
	ErrNoRoute = errors.New("no route")
	// ErrZeroOutput is returned when a quote resolves to zero output.
	ErrZeroOutput = errors.New("zero output")
	// ErrExecutorUnavailable is returned when no execution layer is configured.
	ErrExecutorUnavailable = errors.New("executor unavailable")
)

// QuoteRequest asks for a swap quote in base units.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int
}

// RouteHop is one leg of a swap route.
type RouteHop struct {
	InputMint  string `json:"input_mint"`
	OutputMint string `json:"output_mint"`
	Label      string `json:"label"`
}

// Quote is a quote provider response.
type Quote struct {
	InAmount       uint64     `json:"in_amount"`
	OutAmount      uint64     `json:"out_amount"`
	PriceImpactPct float64    `json:"price_impact_pct"`
	Route          []RouteHop `json:"route"`
}

// IntermediateMints returns the routing assets between the input and output mints.
func (q *Quote) IntermediateMints() []string {
	if q == nil || len(q.Route) < 2 {
		return nil
	}
	mints := make([]string, 0, len(q.Route)-1)
	for _, hop := range q.Route[:len(q.Route)-1] {
		mints = append(mints, hop.OutputMint)
	}
	return mints
}

// QuoteProvider returns swap quotes. Implementations return ErrNoRoute when no route exists.
type QuoteProvider interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

// PriceSource returns USD prices keyed by mint. Missing mints are simply absent.
type PriceSource interface {
	Prices(ctx context.Context, mints []string) (map[string]float64, error)
}

// WalletOracle reports the reserve-asset balance of the managed wallet.
type WalletOracle interface {
	ReserveBalanceLamports(ctx context.Context) (uint64, error)
}

// Executor is the execution layer. The engine only reads the outcome.
type Executor interface {
	Execute(ctx context.Context, intent TradeIntent, maxPriorityFeeLamports int64) (ExecutionOutcome, error)
}

// PositionStore reads the open-position set.
type PositionStore interface {
	GetAll(ctx context.Context) ([]Position, error)
}

// TargetSource reads the current discovery output.
type TargetSource interface {
	GetCandidates(ctx context.Context) ([]TargetCandidate, error)
}

// RealizedPnLSource reads the daily realized PnL aggregate from the ledger.
type RealizedPnLSource interface {
	RealizedPnLUSD(ctx context.Context, dayStart, dayEnd time.Time) (float64, error)
}
