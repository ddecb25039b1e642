package portfolio

import (
	"testing"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	positions := []domain.Position{
		{Mint: "mintA", Quantity: 100},
		{Mint: domain.USDCMint, Quantity: 250},
		{Mint: "mintZ", Quantity: 10},
		{Mint: "closed", Quantity: 0},
	}
	prices := map[string]float64{
		domain.NativeMint: 150,
		domain.USDCMint:   1,
		"mintA":           2,
		"closed":          5,
	}

	v := Value(2*domain.LamportsPerSOL, positions, prices, []string{domain.NativeMint, domain.USDCMint})

	assert.InDelta(t, 550, v.ReserveUSD, 1e-9)
	assert.InDelta(t, 200, v.PositionsUSD, 1e-9)
	assert.InDelta(t, 750, v.EquityUSD, 1e-9)
	assert.Equal(t, []string{"mintZ"}, v.Unpriced)
	assert.NotContains(t, v.Values, "closed")
}

func TestValue_UnpricedNative(t *testing.T) {
	v := Value(domain.LamportsPerSOL, nil, map[string]float64{}, []string{domain.NativeMint})

	assert.Equal(t, 0.0, v.EquityUSD)
	assert.Equal(t, []string{domain.NativeMint}, v.Unpriced)

	empty := Value(0, nil, nil, nil)
	assert.Empty(t, empty.Unpriced)
	assert.NotNil(t, empty.Unpriced)
}
