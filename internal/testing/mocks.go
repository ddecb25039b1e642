package testing

import (
	"context"
	"sync"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
)

// MockPriceSource returns a fixed price map.
type MockPriceSource struct {
	mu     sync.RWMutex
	prices map[string]float64
	err    error
}

// NewMockPriceSource creates a price source seeded with prices.
func NewMockPriceSource(prices map[string]float64) *MockPriceSource {
	if prices == nil {
		prices = make(map[string]float64)
	}
	return &MockPriceSource{prices: prices}
}

// SetPrice sets the price for a mint. A non-positive price removes it.
func (m *MockPriceSource) SetPrice(mint string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if price <= 0 {
		delete(m.prices, mint)
		return
	}
	m.prices[mint] = price
}

// SetError sets the error to return
func (m *MockPriceSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prices returns the known prices for the requested mints.
func (m *MockPriceSource) Prices(_ context.Context, mints []string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]float64, len(mints))
	for _, mint := range mints {
		if p, ok := m.prices[mint]; ok {
			out[mint] = p
		}
	}
	return out, nil
}

// MockWalletOracle reports a fixed reserve balance.
type MockWalletOracle struct {
	mu       sync.RWMutex
	lamports uint64
	err      error
}

// NewMockWalletOracle creates a wallet oracle with the given balance.
func NewMockWalletOracle(lamports uint64) *MockWalletOracle {
	return &MockWalletOracle{lamports: lamports}
}

// SetBalance sets the reported balance.
func (m *MockWalletOracle) SetBalance(lamports uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lamports = lamports
}

// SetError sets the error to return
func (m *MockWalletOracle) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ReserveBalanceLamports returns the configured balance.
func (m *MockWalletOracle) ReserveBalanceLamports(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lamports, m.err
}

// QuoteFunc computes a quote for a request.
type QuoteFunc func(req domain.QuoteRequest) (*domain.Quote, error)

// MockQuoteProvider delegates to a QuoteFunc and records requests.
type MockQuoteProvider struct {
	mu       sync.Mutex
	fn       QuoteFunc
	requests []domain.QuoteRequest
}

// NewMockQuoteProvider creates a quote provider backed by fn.
func NewMockQuoteProvider(fn QuoteFunc) *MockQuoteProvider {
	return &MockQuoteProvider{fn: fn}
}

// Quote records the request and delegates.
func (m *MockQuoteProvider) Quote(_ context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.fn
	m.mu.Unlock()
	if fn == nil {
		return nil, domain.ErrNoRoute
	}
	return fn(req)
}

// Requests returns a copy of the recorded requests.
func (m *MockQuoteProvider) Requests() []domain.QuoteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.QuoteRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LinearQuote returns a QuoteFunc that converts at a fixed out/in rate
// with a direct single-hop route.
func LinearQuote(rate, impactPct float64) QuoteFunc {
	return func(req domain.QuoteRequest) (*domain.Quote, error) {
		return &domain.Quote{
			InAmount:       req.Amount,
			OutAmount:      uint64(float64(req.Amount) * rate),
			PriceImpactPct: impactPct,
			Route:          []domain.RouteHop{{InputMint: req.InputMint, OutputMint: req.OutputMint, Label: "mock"}},
		}, nil
	}
}

// ExecutedIntent is one recorded call to MockExecutor.
type ExecutedIntent struct {
	Intent         domain.TradeIntent
	MaxPriorityFee int64
}

// MockExecutor records intents and returns a configurable outcome.
type MockExecutor struct {
	mu       sync.Mutex
	outcome  func(domain.TradeIntent) domain.ExecutionOutcome
	err      error
	executed []ExecutedIntent
}

// NewMockExecutor creates an executor that confirms every intent at its full amount.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		outcome: func(intent domain.TradeIntent) domain.ExecutionOutcome {
			return domain.ExecutionOutcome{Status: domain.ExecConfirmed, FilledUSD: intent.AmountUSD}
		},
	}
}

// SetOutcome overrides the outcome function.
func (m *MockExecutor) SetOutcome(fn func(domain.TradeIntent) domain.ExecutionOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcome = fn
}

// SetError sets the error to return
func (m *MockExecutor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Execute records the intent.
func (m *MockExecutor) Execute(_ context.Context, intent domain.TradeIntent, maxPriorityFee int64) (domain.ExecutionOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, ExecutedIntent{Intent: intent, MaxPriorityFee: maxPriorityFee})
	if m.err != nil {
		return domain.ExecutionOutcome{}, m.err
	}
	return m.outcome(intent), nil
}

// Executed returns a copy of the recorded intents.
func (m *MockExecutor) Executed() []ExecutedIntent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ExecutedIntent, len(m.executed))
	copy(out, m.executed)
	return out
}

// MockPositionStore returns a fixed position set.
type MockPositionStore struct {
	mu        sync.RWMutex
	positions []domain.Position
	err       error
}

// NewMockPositionStore creates a position store.
func NewMockPositionStore(positions ...domain.Position) *MockPositionStore {
	return &MockPositionStore{positions: positions}
}

// SetPositions replaces the positions.
func (m *MockPositionStore) SetPositions(positions []domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = positions
}

// SetError sets the error to return
func (m *MockPositionStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetAll returns all positions
func (m *MockPositionStore) GetAll(_ context.Context) ([]domain.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Position, len(m.positions))
	copy(out, m.positions)
	return out, nil
}

// MockTargetSource returns fixed candidates.
type MockTargetSource struct {
	mu         sync.RWMutex
	candidates []domain.TargetCandidate
	err        error
}

// NewMockTargetSource creates a target source.
func NewMockTargetSource(candidates ...domain.TargetCandidate) *MockTargetSource {
	return &MockTargetSource{candidates: candidates}
}

// SetCandidates replaces the candidates.
func (m *MockTargetSource) SetCandidates(candidates []domain.TargetCandidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = candidates
}

// SetError sets the error to return
func (m *MockTargetSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetCandidates returns the candidates.
func (m *MockTargetSource) GetCandidates(_ context.Context) ([]domain.TargetCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TargetCandidate, len(m.candidates))
	copy(out, m.candidates)
	return out, nil
}

// MockRealizedPnL returns a fixed realized PnL.
type MockRealizedPnL struct {
	mu  sync.RWMutex
	pnl float64
}

// SetPnL sets the value returned.
func (m *MockRealizedPnL) SetPnL(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pnl = pnl
}

// RealizedPnLUSD returns the configured value regardless of the window.
func (m *MockRealizedPnL) RealizedPnLUSD(_ context.Context, _, _ time.Time) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pnl, nil
}
