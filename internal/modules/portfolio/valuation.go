package portfolio

import (
	"sort"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
)

// Valuation is the marked book at one instant.
type Valuation struct {
	EquityUSD      float64            `json:"equity_usd"`
	ReserveUSD     float64            `json:"reserve_usd"`
	PositionsUSD   float64            `json:"positions_usd"`
	NativeLamports uint64             `json:"native_lamports"`
	Values         map[string]float64 `json:"values"`
	Unpriced       []string           `json:"unpriced"`
}

// Value marks the native reserve balance and every position at prices.
// Positions in reserve mints count toward ReserveUSD. Unpriced positions
// contribute nothing and are listed in Unpriced.
func Value(nativeLamports uint64, positions []domain.Position, prices map[string]float64, reserveMints []string) Valuation {
	v := Valuation{
		NativeLamports: nativeLamports,
		Values:         make(map[string]float64, len(positions)),
		Unpriced:       []string{},
	}
	reserves := utils.SetOf(reserveMints)

	if p := prices[domain.NativeMint]; p > 0 {
		v.ReserveUSD = utils.FromBaseUnits(nativeLamports, domain.NativeDecimals) * p
	} else if nativeLamports > 0 {
		v.Unpriced = append(v.Unpriced, domain.NativeMint)
	}

	for _, pos := range positions {
		if pos.Quantity <= 0 {
			continue
		}
		price := prices[pos.Mint]
		if price <= 0 {
			v.Unpriced = append(v.Unpriced, pos.Mint)
			continue
		}
		value := pos.ValueUSD(price)
		v.Values[pos.Mint] = value
		if reserves[pos.Mint] {
			v.ReserveUSD += value
		} else {
			v.PositionsUSD += value
		}
	}

	sort.Strings(v.Unpriced)
	v.EquityUSD = v.ReserveUSD + v.PositionsUSD
	return v
}
