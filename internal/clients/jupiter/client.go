// Package jupiter is the swap quote and price client for the Jupiter aggregator API.
package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Jupiter API host.
const DefaultBaseURL = "https://lite-api.jup.ag"

// maxIDsPerPriceRequest is the price endpoint's id limit.
const maxIDsPerPriceRequest = 100

// Client implements domain.QuoteProvider and domain.PriceSource.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a Jupiter client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "jupiter").Logger(),
	}
}

type quoteResponse struct {
	InputMint      string `json:"inputMint"`
	InAmount       string `json:"inAmount"`
	OutputMint     string `json:"outputMint"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			Label      string `json:"label"`
			InputMint  string `json:"inputMint"`
			OutputMint string `json:"outputMint"`
		} `json:"swapInfo"`
		Percent int `json:"percent"`
	} `json:"routePlan"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// Quote fetches a swap quote. No route and zero output map to domain.ErrNoRoute
// and domain.ErrZeroOutput. PriceImpactPct is returned in percentage points.
func (c *Client) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	q.Set("slippageBps", strconv.Itoa(req.SlippageBps))

	body, status, err := c.get(ctx, "/swap/v1/quote?"+q.Encode())
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		if isNoRoute(e) {
			return nil, domain.ErrNoRoute
		}
		return nil, fmt.Errorf("quote returned status %d: %s", status, strings.TrimSpace(e.Error))
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse quote: %w", err)
	}

	out, err := parseAmount(resp.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid outAmount: %w", err)
	}
	if out == 0 {
		return nil, domain.ErrZeroOutput
	}
	in, err := parseAmount(resp.InAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid inAmount: %w", err)
	}
	if len(resp.RoutePlan) == 0 {
		return nil, domain.ErrNoRoute
	}

	impact := 0.0
	if resp.PriceImpactPct != "" {
		f, err := strconv.ParseFloat(resp.PriceImpactPct, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid priceImpactPct: %w", err)
		}
		impact = f * 100
	}

	quote := &domain.Quote{
		InAmount:       in,
		OutAmount:      out,
		PriceImpactPct: impact,
		Route:          make([]domain.RouteHop, 0, len(resp.RoutePlan)),
	}
	for _, leg := range resp.RoutePlan {
		quote.Route = append(quote.Route, domain.RouteHop{
			InputMint:  leg.SwapInfo.InputMint,
			OutputMint: leg.SwapInfo.OutputMint,
			Label:      leg.SwapInfo.Label,
		})
	}

	c.log.Debug().
		Str("input", req.InputMint).
		Str("output", req.OutputMint).
		Uint64("in", in).
		Uint64("out", out).
		Float64("impact_pct", impact).
		Int("hops", len(quote.Route)).
		Msg("Quote")
	return quote, nil
}

type priceResponse struct {
	Data map[string]*struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

// Prices fetches USD prices. Mints the API does not price are absent from the result.
func (c *Client) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	out := make(map[string]float64, len(mints))
	for start := 0; start < len(mints); start += maxIDsPerPriceRequest {
		end := start + maxIDsPerPriceRequest
		if end > len(mints) {
			end = len(mints)
		}
		if err := c.fetchPrices(ctx, mints[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) fetchPrices(ctx context.Context, mints []string, out map[string]float64) error {
	if len(mints) == 0 {
		return nil
	}
	body, status, err := c.get(ctx, "/price/v2?ids="+url.QueryEscape(strings.Join(mints, ",")))
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("price API returned status %d", status)
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse prices: %w", err)
	}
	for mint, p := range resp.Data {
		if p == nil {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil || price <= 0 {
			c.log.Debug().Str("mint", mint).Str("price", p.Price).Msg("Ignoring unusable price")
			continue
		}
		out[mint] = price
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func isNoRoute(e errorResponse) bool {
	if e.ErrorCode == "COULD_NOT_FIND_ANY_ROUTE" || e.ErrorCode == "NO_ROUTES_FOUND" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Error), "route")
}

func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
