package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// Trading modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Router sends intents to the paper or live executor according to the trading mode.
// HARD FAIL-SAFE: an unknown mode, or live mode without a live executor, blocks execution.
type Router struct {
	mu     sync.RWMutex
	mode   string
	paper  domain.Executor
	live   domain.Executor
	trades TradeRecorder
	log    zerolog.Logger
}

// NewRouter creates an execution router. live and trades may be nil.
func NewRouter(paper, live domain.Executor, trades TradeRecorder, log zerolog.Logger) *Router {
	return &Router{
		mode:   ModePaper,
		paper:  paper,
		live:   live,
		trades: trades,
		log:    log.With().Str("service", "execution_router").Logger(),
	}
}

// SetMode switches the trading mode. Applied to the next Execute.
func (r *Router) SetMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode != r.mode {
		r.log.Warn().Str("from", r.mode).Str("to", mode).Msg("Trading mode changed")
	}
	r.mode = mode
}

// Mode returns the current trading mode.
func (r *Router) Mode() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// Execute implements domain.Executor.
func (r *Router) Execute(ctx context.Context, intent domain.TradeIntent, maxPriorityFeeLamports int64) (domain.ExecutionOutcome, error) {
	mode := r.Mode()

	switch mode {
	case ModePaper:
		if r.paper == nil {
			return r.block(intent, "paper executor not configured")
		}
		return r.paper.Execute(ctx, intent, maxPriorityFeeLamports)

	case ModeLive:
		if r.live == nil {
			return r.block(intent, "live executor not configured")
		}
		outcome, err := r.live.Execute(ctx, intent, maxPriorityFeeLamports)
		if err != nil {
			outcome = failed(domain.FailureOther, err.Error())
			if ctx.Err() != nil {
				outcome.FailureKind = domain.FailureTimeout
			}
		}
		r.record(context.WithoutCancel(ctx), intent, outcome, maxPriorityFeeLamports)
		return outcome, err

	default:
		return r.block(intent, fmt.Sprintf("unknown trading mode %q", mode))
	}
}

func (r *Router) block(intent domain.TradeIntent, why string) (domain.ExecutionOutcome, error) {
	r.log.Warn().Str("mint", intent.Mint).Str("reason", why).Msg("Trade blocked for safety")
	return failed(domain.FailureOther, why), fmt.Errorf("%w: %s", domain.ErrExecutorUnavailable, why)
}

// record writes live outcomes to the ledger. Realized PnL for live fills is owned by
// the settlement layer and recorded as zero here.
func (r *Router) record(ctx context.Context, intent domain.TradeIntent, outcome domain.ExecutionOutcome, fee int64) {
	if r.trades == nil || intent.ID == "" {
		return
	}
	reason := intent.Reason
	if outcome.FailureKind != "" {
		reason = outcome.FailureKind
	}
	err := r.trades.Create(ctx, Trade{
		ExecutedAt:  time.Now(),
		ID:          intent.ID,
		Mint:        intent.Mint,
		Side:        intent.Side,
		Lane:        intent.Lane,
		Kind:        intent.Kind,
		Status:      outcome.Status,
		Signature:   outcome.Signature,
		Reason:      reason,
		AmountUSD:   outcome.FilledUSD,
		FeeLamports: fee,
	})
	if err != nil {
		r.log.Error().Err(err).Str("mint", intent.Mint).Msg("Failed to record live trade")
	}
}
