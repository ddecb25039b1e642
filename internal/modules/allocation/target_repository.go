package allocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/database"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// TargetRepository stores the discovery output in portfolio.db (target_candidates table).
// It implements domain.TargetSource.
type TargetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTargetRepository creates a target candidate repository.
func NewTargetRepository(db *sql.DB, log zerolog.Logger) *TargetRepository {
	return &TargetRepository{
		db:  db,
		log: log.With().Str("repository", "target_candidates").Logger(),
	}
}

// GetCandidates returns all candidates ordered by score descending.
func (r *TargetRepository) GetCandidates(ctx context.Context) ([]domain.TargetCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mint, symbol, score, lane, decimals, updated_at
		FROM target_candidates
		ORDER BY score DESC, mint ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query target candidates: %w", err)
	}
	defer rows.Close()

	candidates := []domain.TargetCandidate{}
	for rows.Next() {
		var (
			c         domain.TargetCandidate
			symbol    sql.NullString
			lane      string
			updatedAt int64
		)
		if err := rows.Scan(&c.Mint, &symbol, &c.Score, &lane, &c.Decimals, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan target candidate: %w", err)
		}
		c.Symbol = symbol.String
		c.Lane = domain.ParseLane(lane)
		c.Updated = time.Unix(updatedAt, 0).UTC()
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating target candidates: %w", err)
	}
	return candidates, nil
}

// Upsert inserts or updates one candidate.
func (r *TargetRepository) Upsert(ctx context.Context, c domain.TargetCandidate) error {
	if c.Mint == "" {
		return fmt.Errorf("target candidate mint is required")
	}
	if _, err := r.db.ExecContext(ctx, upsertCandidateSQL, candidateArgs(c)...); err != nil {
		return fmt.Errorf("failed to upsert target candidate %s: %w", c.Mint, err)
	}
	return nil
}

// ReplaceAll swaps the whole candidate set in one transaction.
func (r *TargetRepository) ReplaceAll(ctx context.Context, candidates []domain.TargetCandidate) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM target_candidates"); err != nil {
			return fmt.Errorf("failed to clear target candidates: %w", err)
		}
		for _, c := range candidates {
			if c.Mint == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, upsertCandidateSQL, candidateArgs(c)...); err != nil {
				return fmt.Errorf("failed to insert target candidate %s: %w", c.Mint, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("count", len(candidates)).Msg("Replaced target candidates")
	return nil
}

// Delete removes one candidate. Deleting an unknown mint is not an error.
func (r *TargetRepository) Delete(ctx context.Context, mint string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM target_candidates WHERE mint = ?", mint); err != nil {
		return fmt.Errorf("failed to delete target candidate %s: %w", mint, err)
	}
	return nil
}

const upsertCandidateSQL = `
	INSERT INTO target_candidates (mint, symbol, score, lane, decimals, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(mint) DO UPDATE SET
		symbol = excluded.symbol,
		score = excluded.score,
		lane = excluded.lane,
		decimals = excluded.decimals,
		updated_at = excluded.updated_at
`

func candidateArgs(c domain.TargetCandidate) []interface{} {
	updated := c.Updated
	if updated.IsZero() {
		updated = time.Now()
	}
	lane := c.Lane
	if lane == "" {
		lane = domain.LaneScout
	}
	return []interface{}{c.Mint, c.Symbol, c.Score, string(lane), c.Decimals, updated.Unix()}
}
