package utils

import (
	"github.com/shopspring/decimal"
)

// Base-unit conversions are done in decimal so that 0.1 SOL is exactly 100,000,000 lamports
// and token amounts never pick up float drift before being sent to a quote provider.

// ToBaseUnits converts a whole-token amount to base units, truncating toward zero.
// Negative or non-finite amounts return 0.
func ToBaseUnits(amount float64, decimals int32) uint64 {
	if amount <= 0 || amount != amount {
		return 0
	}
	d := decimal.NewFromFloat(amount).Shift(decimals).Truncate(0)
	if !d.IsPositive() {
		return 0
	}
	return d.BigInt().Uint64()
}

// FromBaseUnits converts a base-unit amount to whole tokens.
func FromBaseUnits(amount uint64, decimals int32) float64 {
	f, _ := decimal.NewFromUint64(amount).Shift(-decimals).Float64()
	return f
}

// USDToBaseUnits converts a USD notional to base units of an asset priced at priceUSD.
func USDToBaseUnits(usd, priceUSD float64, decimals int32) uint64 {
	if usd <= 0 || priceUSD <= 0 {
		return 0
	}
	tokens := decimal.NewFromFloat(usd).Div(decimal.NewFromFloat(priceUSD))
	d := tokens.Shift(decimals).Truncate(0)
	if !d.IsPositive() {
		return 0
	}
	return d.BigInt().Uint64()
}

// ScaleBaseUnits multiplies a base-unit amount by a fraction, truncating toward zero.
func ScaleBaseUnits(amount uint64, fraction float64) uint64 {
	if fraction <= 0 {
		return 0
	}
	d := decimal.NewFromUint64(amount).Mul(decimal.NewFromFloat(fraction)).Truncate(0)
	if !d.IsPositive() {
		return 0
	}
	return d.BigInt().Uint64()
}
