// Package liquidity vets buys by simulating an immediate round trip through the
// quote provider before capital is committed.
package liquidity

import (
	"context"
	"errors"
	"strings"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
	"github.com/rs/zerolog"
)

// Result reason codes.
const (
	ReasonOK                = "ok"
	ReasonDisabled          = "disabled"
	ReasonForwardNoRoute    = "forward_no_route"
	ReasonForwardZeroOutput = "forward_zero_output"
	ReasonReverseNoRoute    = "reverse_no_route"
	ReasonReverseZeroOutput = "reverse_zero_output"
	ReasonRoundTripBelowMin = "round_trip_below_min"
	ReasonImpactAboveMax    = "impact_above_max"
	ReasonTooManyHops       = "too_many_hops"
	ReasonDeniedRouteMint   = "denied_route_mint"
	ReasonQuoteError        = "quote_error"
)

// LaneLimits are the rejection thresholds for one lane.
type LaneLimits struct {
	MinRoundTrip     float64
	MaxExitImpactPct float64 // percentage points
	MaxRouteHops     int
}

// Config controls the simulation.
type Config struct {
	Enabled     bool
	ReserveMint string
	Haircut     float64 // fraction of forward output treated as the exit size
	SlippageBps int
	Scout       LaneLimits
	Core        LaneLimits
	DenyMints   []string
}

// Limits returns the thresholds for lane.
func (c Config) Limits(lane domain.Lane) LaneLimits {
	if lane == domain.LaneCore {
		return c.Core
	}
	return c.Scout
}

// Request describes one buy to vet. Existing* are non-zero for a promotion, where
// the exit being simulated is the combined post-resize balance.
type Request struct {
	Mint                  string
	Lane                  domain.Lane
	NotionalLamports      uint64
	ExistingTokens        uint64 // base units already held
	ExistingValueLamports uint64 // reserve value of ExistingTokens
}

// Promotion reports whether the request resizes an existing position.
func (r Request) Promotion() bool {
	return r.ExistingTokens > 0
}

// Result is the verdict for one request. Computed fresh per check.
type Result struct {
	Ok                     bool     `json:"ok"`
	Reason                 string   `json:"reason"`
	RoundTripRatio         float64  `json:"round_trip_ratio"`
	EstimatedExitImpactPct float64  `json:"estimated_exit_impact_pct"`
	RouteHops              int      `json:"route_hops"`
	RouteMints             []string `json:"route_mints"`
	ForwardOut             uint64   `json:"forward_out"`
	ExitSize               uint64   `json:"exit_size"`
	ReverseOut             uint64   `json:"reverse_out"`
	Promotion              bool     `json:"promotion"`
	Error                  string   `json:"error,omitempty"`
}

// Simulator runs round-trip checks against a quote provider.
type Simulator struct {
	quotes domain.QuoteProvider
	log    zerolog.Logger
}

// NewSimulator creates an exit liquidity simulator.
func NewSimulator(quotes domain.QuoteProvider, log zerolog.Logger) *Simulator {
	return &Simulator{
		quotes: quotes,
		log:    log.With().Str("service", "exit_liquidity").Logger(),
	}
}

// Check quotes reserve→asset for the full notional, takes the haircut fraction of
// the output (plus any existing balance) as the exit size, quotes asset→reserve and
// rejects on ratio, impact, hops or a deny-listed routing asset, in that order.
// Quote failures are rejections; Check never returns an error.
func (s *Simulator) Check(ctx context.Context, req Request, cfg Config) Result {
	res := Result{Promotion: req.Promotion(), RouteMints: []string{}}
	if !cfg.Enabled {
		res.Ok = true
		res.Reason = ReasonDisabled
		return res
	}

	if req.NotionalLamports == 0 {
		return s.reject(req, res, ReasonForwardZeroOutput, nil)
	}

	forward, err := s.quotes.Quote(ctx, domain.QuoteRequest{
		InputMint:   cfg.ReserveMint,
		OutputMint:  req.Mint,
		Amount:      req.NotionalLamports,
		SlippageBps: cfg.SlippageBps,
	})
	if reason, failed := quoteFailure(forward, err, ReasonForwardNoRoute, ReasonForwardZeroOutput); failed {
		return s.reject(req, res, reason, err)
	}
	res.ForwardOut = forward.OutAmount

	haircut := cfg.Haircut
	if haircut <= 0 || haircut > 1 {
		haircut = 1
	}
	res.ExitSize = utils.ScaleBaseUnits(forward.OutAmount+req.ExistingTokens, haircut)
	if res.ExitSize == 0 {
		return s.reject(req, res, ReasonForwardZeroOutput, nil)
	}

	reverse, err := s.quotes.Quote(ctx, domain.QuoteRequest{
		InputMint:   req.Mint,
		OutputMint:  cfg.ReserveMint,
		Amount:      res.ExitSize,
		SlippageBps: cfg.SlippageBps,
	})
	if reason, failed := quoteFailure(reverse, err, ReasonReverseNoRoute, ReasonReverseZeroOutput); failed {
		return s.reject(req, res, reason, err)
	}
	res.ReverseOut = reverse.OutAmount
	res.EstimatedExitImpactPct = reverse.PriceImpactPct
	res.RouteHops = len(reverse.Route)
	res.RouteMints = routeMints(reverse)

	capitalIn := float64(req.NotionalLamports) + float64(req.ExistingValueLamports)
	res.RoundTripRatio = (float64(reverse.OutAmount) / haircut) / capitalIn

	limits := cfg.Limits(req.Lane)
	switch {
	case res.RoundTripRatio < limits.MinRoundTrip:
		return s.reject(req, res, ReasonRoundTripBelowMin, nil)
	case limits.MaxExitImpactPct > 0 && res.EstimatedExitImpactPct > limits.MaxExitImpactPct:
		return s.reject(req, res, ReasonImpactAboveMax, nil)
	case limits.MaxRouteHops > 0 && res.RouteHops > limits.MaxRouteHops:
		return s.reject(req, res, ReasonTooManyHops, nil)
	case deniedMint(cfg.DenyMints, forward, reverse) != "":
		return s.reject(req, res, ReasonDeniedRouteMint, nil)
	}

	res.Ok = true
	res.Reason = ReasonOK
	s.log.Debug().
		Str("mint", req.Mint).
		Str("lane", string(req.Lane)).
		Float64("round_trip_ratio", res.RoundTripRatio).
		Float64("exit_impact_pct", res.EstimatedExitImpactPct).
		Int("hops", res.RouteHops).
		Bool("promotion", res.Promotion).
		Msg("Exit liquidity ok")
	return res
}

func (s *Simulator) reject(req Request, res Result, reason string, err error) Result {
	res.Ok = false
	res.Reason = reason
	e := s.log.Info()
	if err != nil && reason == ReasonQuoteError {
		res.Error = err.Error()
		e = s.log.Warn().Err(err)
	}
	e.Str("mint", req.Mint).
		Str("lane", string(req.Lane)).
		Str("reason", reason).
		Float64("round_trip_ratio", res.RoundTripRatio).
		Msg("Exit liquidity rejected")
	return res
}

// quoteFailure maps a quote result onto a rejection reason.
func quoteFailure(q *domain.Quote, err error, noRoute, zeroOutput string) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrNoRoute):
		return noRoute, true
	case errors.Is(err, domain.ErrZeroOutput):
		return zeroOutput, true
	case err != nil:
		return ReasonQuoteError, true
	case q == nil:
		return noRoute, true
	case q.OutAmount == 0:
		return zeroOutput, true
	}
	return "", false
}

func routeMints(q *domain.Quote) []string {
	mints := []string{}
	for i, hop := range q.Route {
		if i == 0 {
			mints = append(mints, hop.InputMint)
		}
		mints = append(mints, hop.OutputMint)
	}
	return mints
}

func deniedMint(deny []string, quotes ...*domain.Quote) string {
	if len(deny) == 0 {
		return ""
	}
	set := utils.SetOf(deny)
	for _, q := range quotes {
		for _, m := range q.IntermediateMints() {
			if set[strings.TrimSpace(m)] {
				return m
			}
		}
	}
	return ""
}
