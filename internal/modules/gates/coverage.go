// Package gates computes price coverage and aggregates the global entry gates.
package gates

import (
	"math"
	"sort"
)

// CoverageResult is the fraction of must-price mints that have a valid price.
type CoverageResult struct {
	MustPriceCount int      `json:"must_price_count"`
	PricedCount    int      `json:"priced_count"`
	Coverage       float64  `json:"coverage"`
	MissingMints   []string `json:"missing_mints"`
}

// ValidPrice reports whether p is usable for valuation.
func ValidPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// MustPriceSet returns the deduplicated union of the given mint groups,
// typically reserve mints, open-position mints and current-tick target mints.
func MustPriceSet(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, m := range g {
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// ComputeCoverage measures price coverage of mustPrice against prices.
// An empty must-price set has coverage 1.0.
func ComputeCoverage(mustPrice []string, prices map[string]float64) CoverageResult {
	set := MustPriceSet(mustPrice)
	result := CoverageResult{
		MustPriceCount: len(set),
		MissingMints:   []string{},
	}

	for _, m := range set {
		if ValidPrice(prices[m]) {
			result.PricedCount++
		} else {
			result.MissingMints = append(result.MissingMints, m)
		}
	}
	sort.Strings(result.MissingMints)

	if result.MustPriceCount == 0 {
		result.Coverage = 1.0
	} else {
		result.Coverage = float64(result.PricedCount) / float64(result.MustPriceCount)
	}
	return result
}

// Thresholds are the two coverage gates.
type Thresholds struct {
	Equity    float64 // below: equity untrusted, skip circuit updates
	Execution float64 // below: block new buys
}

// EquityOk reports whether equity derived from these prices can feed the circuit breaker.
func (c CoverageResult) EquityOk(t Thresholds) bool {
	return c.Coverage >= t.Equity
}

// ExecutionOk reports whether new capital may be deployed at this coverage.
func (c CoverageResult) ExecutionOk(t Thresholds) bool {
	return c.Coverage >= t.Execution
}
