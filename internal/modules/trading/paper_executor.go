package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PositionWriter is the part of the position store the paper executor settles into.
type PositionWriter interface {
	Get(ctx context.Context, mint string) (*domain.Position, error)
	Upsert(ctx context.Context, p domain.Position) error
	Delete(ctx context.Context, mint string) error
}

// TradeRecorder appends trades to the ledger.
type TradeRecorder interface {
	Create(ctx context.Context, trade Trade) error
}

// sellAllTolerance treats a sell within this fraction of the holding as a full close.
const sellAllTolerance = 1e-9

// PaperExecutor fills intents at the current price without touching the chain.
// Positions carry average cost; sells realize PnL against it.
type PaperExecutor struct {
	positions PositionWriter
	trades    TradeRecorder
	prices    domain.PriceSource
	now       func() time.Time
	log       zerolog.Logger
}

// NewPaperExecutor creates a paper executor.
func NewPaperExecutor(positions PositionWriter, trades TradeRecorder, prices domain.PriceSource, log zerolog.Logger) *PaperExecutor {
	return &PaperExecutor{
		positions: positions,
		trades:    trades,
		prices:    prices,
		now:       time.Now,
		log:       log.With().Str("service", "paper_executor").Logger(),
	}
}

// Execute fills intent in paper. Business failures are returned as failed outcomes;
// the error is reserved for store failures.
func (e *PaperExecutor) Execute(ctx context.Context, intent domain.TradeIntent, maxPriorityFeeLamports int64) (domain.ExecutionOutcome, error) {
	prices, err := e.prices.Prices(ctx, []string{intent.Mint})
	if err != nil {
		return failed(domain.FailureOther, fmt.Sprintf("price lookup: %v", err)), nil
	}
	price := prices[intent.Mint]
	if price <= 0 {
		return failed(domain.FailureOther, "no price"), nil
	}

	pos, err := e.positions.Get(ctx, intent.Mint)
	if err != nil {
		return domain.ExecutionOutcome{}, err
	}

	now := e.now().UTC()
	trade := Trade{
		ExecutedAt:  now,
		ID:          intent.ID,
		Mint:        intent.Mint,
		Side:        intent.Side,
		Lane:        intent.Lane,
		Kind:        intent.Kind,
		Status:      domain.ExecPaper,
		Signature:   "paper-" + uuid.NewString(),
		Reason:      intent.Reason,
		PriceUSD:    price,
		FeeLamports: maxPriorityFeeLamports,
	}
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}

	switch intent.Side {
	case domain.SideBuy:
		if intent.AmountUSD <= 0 {
			return failed(domain.FailureOther, "zero amount"), nil
		}
		qty := intent.AmountUSD / price
		next := domain.Position{Mint: intent.Mint, Lane: intent.Lane, OpenedAt: now}
		if pos != nil && pos.Quantity > 0 {
			next = *pos
			if intent.Lane == domain.LaneCore {
				next.Lane = domain.LaneCore
			}
		}
		next.Quantity += qty
		next.CostBasisUSD += intent.AmountUSD
		next.LastTradeAt = now
		if err := e.positions.Upsert(ctx, next); err != nil {
			return domain.ExecutionOutcome{}, err
		}
		trade.AmountUSD = intent.AmountUSD
		trade.Quantity = qty

	case domain.SideSell:
		if pos == nil || pos.Quantity <= 0 {
			return failed(domain.FailureInsufficientFunds, "no position"), nil
		}
		qty := intent.AmountUSD / price
		closeAll := intent.CloseAll || qty >= pos.Quantity*(1-sellAllTolerance)
		if closeAll {
			qty = pos.Quantity
		}
		if qty <= 0 {
			return failed(domain.FailureOther, "zero amount"), nil
		}
		costPortion := pos.CostBasisUSD * qty / pos.Quantity
		proceeds := qty * price
		trade.AmountUSD = proceeds
		trade.Quantity = qty
		trade.RealizedPnLUSD = proceeds - costPortion

		if closeAll {
			err = e.positions.Delete(ctx, intent.Mint)
		} else {
			next := *pos
			next.Quantity -= qty
			next.CostBasisUSD -= costPortion
			next.LastTradeAt = now
			err = e.positions.Upsert(ctx, next)
		}
		if err != nil {
			return domain.ExecutionOutcome{}, err
		}

	default:
		return failed(domain.FailureOther, fmt.Sprintf("unknown side %q", intent.Side)), nil
	}

	if err := e.trades.Create(ctx, trade); err != nil {
		e.log.Error().Err(err).Str("mint", intent.Mint).Msg("Paper fill settled but ledger write failed")
	}

	e.log.Info().
		Str("mint", intent.Mint).
		Str("side", string(intent.Side)).
		Float64("amount_usd", trade.AmountUSD).
		Float64("quantity", trade.Quantity).
		Float64("price_usd", price).
		Float64("realized_pnl_usd", trade.RealizedPnLUSD).
		Msg("Paper fill")

	return domain.ExecutionOutcome{
		Status:    domain.ExecPaper,
		Signature: trade.Signature,
		FilledUSD: trade.AmountUSD,
	}, nil
}

func failed(kind, msg string) domain.ExecutionOutcome {
	return domain.ExecutionOutcome{Status: domain.ExecFailed, FailureKind: kind, Message: msg}
}
