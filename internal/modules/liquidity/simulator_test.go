package liquidity

import (
	"context"
	"errors"
	"testing"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	testingpkg "github.com/cstahmer1/solana-trading-bot-sub001/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "mintA"

func testConfig() Config {
	return Config{
		Enabled:     true,
		ReserveMint: domain.NativeMint,
		Haircut:     0.9,
		SlippageBps: 100,
		Scout:       LaneLimits{MinRoundTrip: 0.90, MaxExitImpactPct: 3.0, MaxRouteHops: 3},
		Core:        LaneLimits{MinRoundTrip: 0.94, MaxExitImpactPct: 1.5, MaxRouteHops: 2},
	}
}

type market struct {
	forwardRate  float64
	reverseRate  float64
	impactPct    float64
	reverseRoute []string // intermediate mints on the exit route
	forwardRoute []string
	forwardErr   error
	reverseErr   error
}

func (m market) quote(req domain.QuoteRequest) (*domain.Quote, error) {
	forward := req.InputMint == domain.NativeMint
	rate, err, via := m.reverseRate, m.reverseErr, m.reverseRoute
	impact := m.impactPct
	if forward {
		rate, err, via = m.forwardRate, m.forwardErr, m.forwardRoute
		impact = 0.1
	}
	if err != nil {
		return nil, err
	}

	path := append([]string{req.InputMint}, via...)
	path = append(path, req.OutputMint)
	route := make([]domain.RouteHop, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		route = append(route, domain.RouteHop{InputMint: path[i], OutputMint: path[i+1], Label: "amm"})
	}
	return &domain.Quote{
		InAmount:       req.Amount,
		OutAmount:      uint64(float64(req.Amount) * rate),
		PriceImpactPct: impact,
		Route:          route,
	}, nil
}

func newSim(m market) (*Simulator, *testingpkg.MockQuoteProvider) {
	qp := testingpkg.NewMockQuoteProvider(m.quote)
	return NewSimulator(qp, zerolog.New(nil).Level(zerolog.Disabled)), qp
}

func TestCheck_RoundTripRatioFormula(t *testing.T) {
	sim, qp := newSim(market{forwardRate: 1000, reverseRate: 0.00095, impactPct: 0.5})
	req := Request{Mint: testMint, Lane: domain.LaneCore, NotionalLamports: 1_000_000_000}

	res := sim.Check(context.Background(), req, testConfig())

	require.True(t, res.Ok, res.Reason)
	assert.Equal(t, ReasonOK, res.Reason)
	assert.Equal(t, uint64(1_000_000_000_000), res.ForwardOut)
	assert.Equal(t, uint64(900_000_000_000), res.ExitSize)
	expected := (float64(res.ReverseOut) / 0.9) / 1e9
	assert.InDelta(t, expected, res.RoundTripRatio, 1e-12)
	assert.InDelta(t, 0.95, res.RoundTripRatio, 1e-6)
	assert.Equal(t, 1, res.RouteHops)
	assert.Equal(t, []string{testMint, domain.NativeMint}, res.RouteMints)

	reqs := qp.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.NativeMint, reqs[0].InputMint)
	assert.Equal(t, uint64(1_000_000_000), reqs[0].Amount)
	assert.Equal(t, testMint, reqs[1].InputMint)
	assert.Equal(t, uint64(900_000_000_000), reqs[1].Amount)
	assert.Equal(t, 100, reqs[1].SlippageBps)
}

func TestCheck_Idempotent(t *testing.T) {
	sim, _ := newSim(market{forwardRate: 1000, reverseRate: 0.00095, impactPct: 0.5})
	req := Request{Mint: testMint, Lane: domain.LaneScout, NotionalLamports: 250_000_000}

	first := sim.Check(context.Background(), req, testConfig())
	second := sim.Check(context.Background(), req, testConfig())
	assert.Equal(t, first, second)
}

func TestCheck_LaneThresholds(t *testing.T) {
	// ratio ≈ 0.92: passes scout (0.90), fails core (0.94)
	sim, _ := newSim(market{forwardRate: 1000, reverseRate: 0.00092, impactPct: 0.5})
	req := Request{Mint: testMint, NotionalLamports: 1_000_000_000}

	req.Lane = domain.LaneScout
	assert.True(t, sim.Check(context.Background(), req, testConfig()).Ok)

	req.Lane = domain.LaneCore
	res := sim.Check(context.Background(), req, testConfig())
	assert.False(t, res.Ok)
	assert.Equal(t, ReasonRoundTripBelowMin, res.Reason)
	assert.InDelta(t, 0.92, res.RoundTripRatio, 1e-6)
}

func TestCheck_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		market market
		lane   domain.Lane
		deny   []string
		reason string
	}{
		{
			name:   "forward no route",
			market: market{forwardErr: domain.ErrNoRoute},
			reason: ReasonForwardNoRoute,
		},
		{
			name:   "forward zero output",
			market: market{forwardRate: 0, reverseRate: 1},
			reason: ReasonForwardZeroOutput,
		},
		{
			name:   "forward zero output error",
			market: market{forwardErr: domain.ErrZeroOutput},
			reason: ReasonForwardZeroOutput,
		},
		{
			name:   "reverse no route",
			market: market{forwardRate: 1000, reverseErr: domain.ErrNoRoute},
			reason: ReasonReverseNoRoute,
		},
		{
			name:   "reverse zero output",
			market: market{forwardRate: 1000, reverseRate: 0},
			reason: ReasonReverseZeroOutput,
		},
		{
			name:   "quote error",
			market: market{forwardRate: 1000, reverseErr: errors.New("http 502")},
			reason: ReasonQuoteError,
		},
		{
			name:   "impact above core max",
			market: market{forwardRate: 1000, reverseRate: 0.00099, impactPct: 2.0},
			lane:   domain.LaneCore,
			reason: ReasonImpactAboveMax,
		},
		{
			name:   "too many hops for core",
			market: market{forwardRate: 1000, reverseRate: 0.00099, impactPct: 0.2, reverseRoute: []string{"X", "Y"}},
			lane:   domain.LaneCore,
			reason: ReasonTooManyHops,
		},
		{
			name:   "deny-listed exit intermediate",
			market: market{forwardRate: 1000, reverseRate: 0.00099, impactPct: 0.2, reverseRoute: []string{"BAD"}},
			deny:   []string{"BAD"},
			reason: ReasonDeniedRouteMint,
		},
		{
			name:   "deny-listed entry intermediate",
			market: market{forwardRate: 1000, reverseRate: 0.00099, impactPct: 0.2, forwardRoute: []string{"BAD"}},
			deny:   []string{"BAD"},
			reason: ReasonDeniedRouteMint,
		},
		{
			name:   "ratio checked before impact",
			market: market{forwardRate: 1000, reverseRate: 0.0005, impactPct: 9},
			reason: ReasonRoundTripBelowMin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := newSim(tt.market)
			cfg := testConfig()
			cfg.DenyMints = tt.deny
			lane := tt.lane
			if lane == "" {
				lane = domain.LaneScout
			}

			res := sim.Check(context.Background(), Request{Mint: testMint, Lane: lane, NotionalLamports: 1_000_000_000}, cfg)

			assert.False(t, res.Ok)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestCheck_ScoutToleratesWhatCoreRejects(t *testing.T) {
	sim, _ := newSim(market{forwardRate: 1000, reverseRate: 0.00099, impactPct: 2.0, reverseRoute: []string{"X", "Y"}})
	res := sim.Check(context.Background(), Request{Mint: testMint, Lane: domain.LaneScout, NotionalLamports: 1_000_000_000}, testConfig())
	assert.True(t, res.Ok, res.Reason)
	assert.Equal(t, 3, res.RouteHops)
	assert.Equal(t, []string{testMint, "X", "Y", domain.NativeMint}, res.RouteMints)
}

func TestCheck_PromotionUsesCombinedBalance(t *testing.T) {
	sim, qp := newSim(market{forwardRate: 1000, reverseRate: 0.00095, impactPct: 0.5})
	req := Request{
		Mint:                  testMint,
		Lane:                  domain.LaneCore,
		NotionalLamports:      1_000_000_000,
		ExistingTokens:        500_000_000_000,
		ExistingValueLamports: 500_000_000,
	}

	res := sim.Check(context.Background(), req, testConfig())

	require.True(t, res.Ok, res.Reason)
	assert.True(t, res.Promotion)
	assert.Equal(t, uint64(1_350_000_000_000), res.ExitSize)
	assert.Equal(t, uint64(1_350_000_000_000), qp.Requests()[1].Amount)
	assert.InDelta(t, (float64(res.ReverseOut)/0.9)/1.5e9, res.RoundTripRatio, 1e-12)
}

func TestCheck_DisabledAlwaysOk(t *testing.T) {
	sim, qp := newSim(market{forwardErr: domain.ErrNoRoute})
	cfg := testConfig()
	cfg.Enabled = false

	res := sim.Check(context.Background(), Request{Mint: testMint, NotionalLamports: 1}, cfg)
	assert.True(t, res.Ok)
	assert.Equal(t, ReasonDisabled, res.Reason)
	assert.Empty(t, qp.Requests())
}

func TestCheck_ZeroNotional(t *testing.T) {
	sim, qp := newSim(market{forwardRate: 1000, reverseRate: 0.001})
	res := sim.Check(context.Background(), Request{Mint: testMint}, testConfig())
	assert.False(t, res.Ok)
	assert.Equal(t, ReasonForwardZeroOutput, res.Reason)
	assert.Empty(t, qp.Requests())
}
