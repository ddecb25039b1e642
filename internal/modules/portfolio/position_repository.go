// Package portfolio stores open positions and values the book.
package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// PositionRepository handles position database operations.
// Database: portfolio.db (positions table). Implements domain.PositionStore.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

const positionsColumns = `mint, symbol, decimals, quantity, cost_basis_usd, lane, opened_at, last_trade_at, liquidating`

// NewPositionRepository creates a new position repository.
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repository", "position").Logger(),
	}
}

// GetAll returns all positions with a positive quantity, ordered by mint.
func (r *PositionRepository) GetAll(ctx context.Context) ([]domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+positionsColumns+" FROM positions WHERE quantity > 0 ORDER BY mint")
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// Get returns the position for mint, or nil if none is held.
func (r *PositionRepository) Get(ctx context.Context, mint string) (*domain.Position, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+positionsColumns+" FROM positions WHERE mint = ?", mint)
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position %s: %w", mint, err)
	}
	return &p, nil
}

// Upsert inserts or replaces a position.
func (r *PositionRepository) Upsert(ctx context.Context, p domain.Position) error {
	if p.Mint == "" {
		return fmt.Errorf("position mint is required")
	}
	now := time.Now()
	opened := p.OpenedAt
	if opened.IsZero() {
		opened = now
	}
	lastTrade := p.LastTradeAt
	if lastTrade.IsZero() {
		lastTrade = opened
	}
	lane := p.Lane
	if lane == "" {
		lane = domain.LaneScout
	}
	liquidating := 0
	if p.Liquidating {
		liquidating = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (`+positionsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mint) DO UPDATE SET
			symbol = excluded.symbol,
			decimals = excluded.decimals,
			quantity = excluded.quantity,
			cost_basis_usd = excluded.cost_basis_usd,
			lane = excluded.lane,
			opened_at = excluded.opened_at,
			last_trade_at = excluded.last_trade_at,
			liquidating = excluded.liquidating
	`, p.Mint, nullString(p.Symbol), p.Decimals, p.Quantity, p.CostBasisUSD, string(lane),
		opened.Unix(), lastTrade.Unix(), liquidating)
	if err != nil {
		return fmt.Errorf("failed to upsert position %s: %w", p.Mint, err)
	}

	r.log.Debug().
		Str("mint", p.Mint).
		Float64("quantity", p.Quantity).
		Float64("cost_basis_usd", p.CostBasisUSD).
		Msg("Position upserted")
	return nil
}

// Delete removes the position for mint.
func (r *PositionRepository) Delete(ctx context.Context, mint string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM positions WHERE mint = ?", mint); err != nil {
		return fmt.Errorf("failed to delete position %s: %w", mint, err)
	}
	r.log.Info().Str("mint", mint).Msg("Position closed")
	return nil
}

// SetLiquidating flags a position for full exit on the next tick.
func (r *PositionRepository) SetLiquidating(ctx context.Context, mint string, liquidating bool) error {
	v := 0
	if liquidating {
		v = 1
	}
	res, err := r.db.ExecContext(ctx, "UPDATE positions SET liquidating = ? WHERE mint = ?", v, mint)
	if err != nil {
		return fmt.Errorf("failed to update position %s: %w", mint, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("position %s not found", mint)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(s scanner) (domain.Position, error) {
	var (
		p           domain.Position
		symbol      sql.NullString
		lane        string
		openedAt    int64
		lastTradeAt int64
		liquidating int
	)
	if err := s.Scan(&p.Mint, &symbol, &p.Decimals, &p.Quantity, &p.CostBasisUSD, &lane,
		&openedAt, &lastTradeAt, &liquidating); err != nil {
		return domain.Position{}, err
	}
	p.Symbol = symbol.String
	p.Lane = domain.ParseLane(lane)
	p.OpenedAt = time.Unix(openedAt, 0).UTC()
	p.LastTradeAt = time.Unix(lastTradeAt, 0).UTC()
	p.Liquidating = liquidating != 0
	return p, nil
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}
