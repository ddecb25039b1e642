package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
)

// Trade is one ledger row: an attempted or filled swap.
type Trade struct {
	ExecutedAt     time.Time              `json:"executed_at"`
	ID             string                 `json:"id"`
	Mint           string                 `json:"mint"`
	Side           domain.Side            `json:"side"`
	Lane           domain.Lane            `json:"lane"`
	Kind           domain.IntentKind      `json:"kind"`
	Status         domain.ExecutionStatus `json:"status"`
	Signature      string                 `json:"signature,omitempty"`
	Reason         string                 `json:"reason,omitempty"`
	AmountUSD      float64                `json:"amount_usd"`
	Quantity       float64                `json:"quantity"`
	PriceUSD       float64                `json:"price_usd"`
	RealizedPnLUSD float64                `json:"realized_pnl_usd"`
	FeeLamports    int64                  `json:"fee_lamports"`
}

// Validate checks the trade before it is written.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("trade id cannot be empty")
	}
	if strings.TrimSpace(t.Mint) == "" {
		return fmt.Errorf("mint cannot be empty")
	}
	if t.Side != domain.SideBuy && t.Side != domain.SideSell {
		return fmt.Errorf("invalid side %q", t.Side)
	}
	if t.Status == "" {
		return fmt.Errorf("status cannot be empty")
	}
	if t.AmountUSD < 0 || t.Quantity < 0 {
		return fmt.Errorf("amount and quantity must not be negative")
	}
	return nil
}

// Filled reports whether the trade moved capital.
func (t *Trade) Filled() bool {
	return domain.ExecutionOutcome{Status: t.Status}.Filled()
}
