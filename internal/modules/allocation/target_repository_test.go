package allocation

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

func newTargetRepo(t *testing.T) *TargetRepository {
	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	t.Cleanup(cleanup)
	return NewTargetRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestTargetRepository_UpsertAndGet(t *testing.T) {
	repo := newTargetRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, domain.TargetCandidate{Mint: "mintA", Symbol: "AAA", Score: 1, Lane: domain.LaneCore, Decimals: 6, Updated: at}))
	require.NoError(t, repo.Upsert(ctx, domain.TargetCandidate{Mint: "mintB", Score: 3}))
	require.NoError(t, repo.Upsert(ctx, domain.TargetCandidate{Mint: "mintA", Symbol: "AAA", Score: 2, Lane: domain.LaneCore, Decimals: 6, Updated: at}))

	got, err := repo.GetCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "mintB", got[0].Mint)
	assert.Equal(t, domain.LaneScout, got[0].Lane)
	assert.Equal(t, "mintA", got[1].Mint)
	assert.Equal(t, 2.0, got[1].Score)
	assert.Equal(t, "AAA", got[1].Symbol)
	assert.Equal(t, int32(6), got[1].Decimals)
	assert.Equal(t, at, got[1].Updated)

	assert.Error(t, repo.Upsert(ctx, domain.TargetCandidate{Score: 1}))
}

func TestTargetRepository_ReplaceAllAndDelete(t *testing.T) {
	repo := newTargetRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, domain.TargetCandidate{Mint: "old", Score: 1}))
	require.NoError(t, repo.ReplaceAll(ctx, []domain.TargetCandidate{
		{Mint: "mintA", Score: 1},
		{Mint: "mintB", Score: 2},
		{Score: 9},
	}))

	got, err := repo.GetCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mintB", got[0].Mint)

	require.NoError(t, repo.Delete(ctx, "mintB"))
	require.NoError(t, repo.Delete(ctx, "missing"))

	got, err = repo.GetCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mintA", got[0].Mint)

	require.NoError(t, repo.ReplaceAll(ctx, nil))
	got, err = repo.GetCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
