package allocation

import "strings"

// Binding constraint tags, in application order.
const (
	TagMintCap  = "mint_cap"
	TagTotalCap = "total_cap"
	TagSwapCap  = "swap_cap"
	TagMinTrade = "min_trade"
)

// Override blocks. They zero the amount and take priority in the reason.
const (
	OverrideLiquidationLock = "liquidation_lock"
	OverrideNoProbeTopUp    = "no_probe_topup"
)

// BindingInput is the sizing context for one buy.
type BindingInput struct {
	DesiredUSD           float64
	RemainingMintCapUSD  float64
	RemainingTotalCapUSD float64
	MaxSingleSwapUSD     float64
	MinTradeUSD          float64
	LiquidationLock      bool
	NoProbeTopUp         bool
}

// BindingResult is the final buy amount and why it differs from the desired one.
type BindingResult struct {
	AmountUSD float64  `json:"amount_usd"`
	Tags      []string `json:"tags,omitempty"`
	Override  string   `json:"override,omitempty"`
}

// Reason renders the override, or the ordered tags joined with "+".
func (r BindingResult) Reason() string {
	if r.Override != "" {
		return r.Override
	}
	return strings.Join(r.Tags, "+")
}

// Blocked reports whether nothing will be bought.
func (r BindingResult) Blocked() bool {
	return r.AmountUSD <= 0
}

// ResolveBinding applies the per-mint cap, total-exposure cap and single-swap cap
// in that order. A cap binds only when strictly smaller than the running amount,
// and the last cap to bind is the one reported.
func ResolveBinding(in BindingInput) BindingResult {
	res := BindingResult{AmountUSD: in.DesiredUSD}
	if res.AmountUSD < 0 {
		res.AmountUSD = 0
	}

	caps := []struct {
		tag   string
		limit float64
	}{
		{TagMintCap, in.RemainingMintCapUSD},
		{TagTotalCap, in.RemainingTotalCapUSD},
		{TagSwapCap, in.MaxSingleSwapUSD},
	}
	binding := ""
	for _, c := range caps {
		limit := c.limit
		if limit < 0 {
			limit = 0
		}
		if limit < res.AmountUSD {
			res.AmountUSD = limit
			binding = c.tag
		}
	}
	if binding != "" {
		res.Tags = append(res.Tags, binding)
	}

	if res.AmountUSD > 0 && res.AmountUSD <= in.MinTradeUSD {
		res.AmountUSD = 0
		res.Tags = append(res.Tags, TagMinTrade)
	}

	switch {
	case in.LiquidationLock:
		res.AmountUSD = 0
		res.Override = OverrideLiquidationLock
	case in.NoProbeTopUp:
		res.AmountUSD = 0
		res.Override = OverrideNoProbeTopUp
	}

	return res
}
