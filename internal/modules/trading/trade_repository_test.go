package trading

import (
	"context"
	"testing"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	testingpkg "github.com/cstahmer1/solana-trading-bot-sub001/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTradeRepo(t *testing.T) *TradeRepository {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)
	return NewTradeRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
}

func trade(id, mint string, side domain.Side, status domain.ExecutionStatus, amount, pnl float64, at time.Time) Trade {
	return Trade{
		ID:             id,
		Mint:           mint,
		Side:           side,
		Lane:           domain.LaneScout,
		Kind:           domain.IntentRebalanceBuy,
		Status:         status,
		AmountUSD:      amount,
		RealizedPnLUSD: pnl,
		ExecutedAt:     at,
	}
}

func TestTradeRepository_CreateAndGet(t *testing.T) {
	repo := newTradeRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tr := trade("t1", "mintA", domain.SideBuy, domain.ExecPaper, 100, 0, at)
	tr.Signature = "sig"
	tr.FeeLamports = 72_000
	require.NoError(t, repo.Create(ctx, tr))
	// duplicate id is skipped
	require.NoError(t, repo.Create(ctx, tr))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mintA", got.Mint)
	assert.Equal(t, domain.SideBuy, got.Side)
	assert.Equal(t, domain.ExecPaper, got.Status)
	assert.Equal(t, "sig", got.Signature)
	assert.Equal(t, int64(72_000), got.FeeLamports)
	assert.Equal(t, at, got.ExecutedAt)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	history, err := repo.GetHistory(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTradeRepository_Validate(t *testing.T) {
	repo := newTradeRepo(t)
	ctx := context.Background()

	assert.Error(t, repo.Create(ctx, Trade{Mint: "m", Side: domain.SideBuy, Status: domain.ExecPaper}))
	assert.Error(t, repo.Create(ctx, Trade{ID: "x", Side: domain.SideBuy, Status: domain.ExecPaper}))
	assert.Error(t, repo.Create(ctx, Trade{ID: "x", Mint: "m", Side: "hold", Status: domain.ExecPaper}))
	assert.Error(t, repo.Create(ctx, Trade{ID: "x", Mint: "m", Side: domain.SideSell}))
}

func TestTradeRepository_DailyAggregates(t *testing.T) {
	repo := newTradeRepo(t)
	ctx := context.Background()
	dayStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	require.NoError(t, repo.Create(ctx, trade("a", "mintA", domain.SideSell, domain.ExecPaper, 100, -20, dayStart.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, trade("b", "mintB", domain.SideSell, domain.ExecConfirmed, 50, 5, dayStart.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, trade("c", "mintB", domain.SideSell, domain.ExecFailed, 70, -99, dayStart.Add(3*time.Hour))))
	require.NoError(t, repo.Create(ctx, trade("d", "mintA", domain.SideSell, domain.ExecPaper, 30, -50, dayStart.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, trade("e", "mintA", domain.SideSell, domain.ExecPaper, 30, -50, dayEnd)))

	pnl, err := repo.RealizedPnLUSD(ctx, dayStart, dayEnd)
	require.NoError(t, err)
	assert.InDelta(t, -15, pnl, 1e-9)

	turnover, err := repo.TurnoverUSD(ctx, dayStart, dayEnd)
	require.NoError(t, err)
	assert.InDelta(t, 150, turnover, 1e-9)

	empty, err := repo.RealizedPnLUSD(ctx, dayEnd.AddDate(0, 0, 5), dayEnd.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty)

	last, err := repo.GetLastTradeTimestamp(ctx, "mintB")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, dayStart.Add(2*time.Hour), *last)

	none, err := repo.GetLastTradeTimestamp(ctx, "mintZ")
	require.NoError(t, err)
	assert.Nil(t, none)

	history, err := repo.GetHistory(ctx, "mintA", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "e", history[0].ID)
	assert.Equal(t, "a", history[1].ID)
}
