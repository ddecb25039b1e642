package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// TradeRepository handles trade ledger operations.
// Database: ledger.db (trades table). Implements domain.RealizedPnLSource.
type TradeRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// tradesColumns must match scanTrade.
const tradesColumns = `id, mint, side, lane, kind, amount_usd, quantity, price_usd, realized_pnl_usd, fee_lamports, status, signature, reason, executed_at`

// filledStatuses is the SQL set of statuses that moved capital.
const filledStatuses = `('confirmed', 'paper', 'submitted')`

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repository", "trade").Logger(),
	}
}

// Create appends a trade. A duplicate id is skipped silently.
func (r *TradeRepository) Create(ctx context.Context, trade Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	executedAt := trade.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}

	res, err := r.ledgerDB.ExecContext(ctx, `
		INSERT OR IGNORE INTO trades (`+tradesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trade.ID,
		trade.Mint,
		string(trade.Side),
		string(trade.Lane),
		string(trade.Kind),
		trade.AmountUSD,
		trade.Quantity,
		trade.PriceUSD,
		trade.RealizedPnLUSD,
		trade.FeeLamports,
		string(trade.Status),
		nullString(trade.Signature),
		nullString(trade.Reason),
		executedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.log.Debug().Str("id", trade.ID).Msg("Trade already recorded, skipping duplicate")
		return nil
	}

	r.log.Info().
		Str("mint", trade.Mint).
		Str("side", string(trade.Side)).
		Str("status", string(trade.Status)).
		Float64("amount_usd", trade.AmountUSD).
		Float64("realized_pnl_usd", trade.RealizedPnLUSD).
		Msg("Trade recorded")
	return nil
}

// GetByID returns one trade, or nil if unknown.
func (r *TradeRepository) GetByID(ctx context.Context, id string) (*Trade, error) {
	row := r.ledgerDB.QueryRowContext(ctx, "SELECT "+tradesColumns+" FROM trades WHERE id = ?", id)
	trade, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, err)
	}
	return &trade, nil
}

// GetHistory returns the most recent trades, newest first. An empty mint means all mints.
func (r *TradeRepository) GetHistory(ctx context.Context, mint string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + tradesColumns + " FROM trades"
	args := []interface{}{}
	if mint != "" {
		query += " WHERE mint = ?"
		args = append(args, mint)
	}
	query += " ORDER BY executed_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.ledgerDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade history: %w", err)
	}
	defer rows.Close()

	trades := []Trade{}
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

// RealizedPnLUSD sums realized PnL of filled trades executed in [dayStart, dayEnd).
func (r *TradeRepository) RealizedPnLUSD(ctx context.Context, dayStart, dayEnd time.Time) (float64, error) {
	var total sql.NullFloat64
	err := r.ledgerDB.QueryRowContext(ctx, `
		SELECT SUM(realized_pnl_usd) FROM trades
		WHERE status IN `+filledStatuses+` AND executed_at >= ? AND executed_at < ?
	`, dayStart.Unix(), dayEnd.Unix()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum realized pnl: %w", err)
	}
	return total.Float64, nil
}

// TurnoverUSD sums the notional of filled trades executed in [dayStart, dayEnd).
func (r *TradeRepository) TurnoverUSD(ctx context.Context, dayStart, dayEnd time.Time) (float64, error) {
	var total sql.NullFloat64
	err := r.ledgerDB.QueryRowContext(ctx, `
		SELECT SUM(amount_usd) FROM trades
		WHERE status IN `+filledStatuses+` AND executed_at >= ? AND executed_at < ?
	`, dayStart.Unix(), dayEnd.Unix()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum turnover: %w", err)
	}
	return total.Float64, nil
}

// GetLastTradeTimestamp returns the time of the most recent filled trade for mint, or nil.
func (r *TradeRepository) GetLastTradeTimestamp(ctx context.Context, mint string) (*time.Time, error) {
	var ts sql.NullInt64
	err := r.ledgerDB.QueryRowContext(ctx, `
		SELECT MAX(executed_at) FROM trades WHERE mint = ? AND status IN `+filledStatuses,
		mint).Scan(&ts)
	if err != nil {
		return nil, fmt.Errorf("failed to get last trade timestamp: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	t := time.Unix(ts.Int64, 0).UTC()
	return &t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(s scanner) (Trade, error) {
	var (
		trade                    Trade
		side, lane, kind, status string
		signature, reason        sql.NullString
		executedAt               int64
	)
	err := s.Scan(
		&trade.ID,
		&trade.Mint,
		&side,
		&lane,
		&kind,
		&trade.AmountUSD,
		&trade.Quantity,
		&trade.PriceUSD,
		&trade.RealizedPnLUSD,
		&trade.FeeLamports,
		&status,
		&signature,
		&reason,
		&executedAt,
	)
	if err != nil {
		return trade, err
	}

	trade.Side = domain.Side(side)
	trade.Lane = domain.ParseLane(lane)
	trade.Kind = domain.IntentKind(kind)
	trade.Status = domain.ExecutionStatus(status)
	trade.Signature = signature.String
	trade.Reason = reason.String
	trade.ExecutedAt = time.Unix(executedAt, 0).UTC()
	return trade, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
