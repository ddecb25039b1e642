package circuit

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StateRepository persists the current circuit in portfolio.db so a restart on the
// same trading day keeps the pause.
type StateRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStateRepository creates a circuit state repository.
func NewStateRepository(db *sql.DB, log zerolog.Logger) *StateRepository {
	return &StateRepository{
		db:  db,
		log: log.With().Str("repository", "circuit_state").Logger(),
	}
}

// Load returns the persisted circuit, or nil if none has been saved.
func (r *StateRepository) Load() (*State, error) {
	var (
		s         State
		paused    int
		reason    sql.NullString
		trippedAt sql.NullInt64
	)
	err := r.db.QueryRow(`
		SELECT day, start_equity_usd, min_equity_usd, realized_pnl_usd, realized_base_usd,
		       turnover_usd, tripped, trip_reason, tripped_at
		FROM circuit_state WHERE id = 1
	`).Scan(&s.DayKey, &s.StartEquityUSD, &s.MinEquityUSD, &s.RealizedPnLUSD, &s.RealizedBaseUSD,
		&s.TurnoverUSD, &paused, &reason, &trippedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load circuit state: %w", err)
	}

	s.Paused = paused != 0
	s.PauseReason = reason.String
	if trippedAt.Valid && trippedAt.Int64 > 0 {
		s.LastPauseChange = time.Unix(trippedAt.Int64, 0).UTC()
	}
	return &s, nil
}

// Save upserts the circuit.
func (r *StateRepository) Save(s State) error {
	var changedAt interface{}
	if !s.LastPauseChange.IsZero() {
		changedAt = s.LastPauseChange.Unix()
	}
	paused := 0
	if s.Paused {
		paused = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO circuit_state (id, day, start_equity_usd, min_equity_usd, realized_pnl_usd,
			realized_base_usd, turnover_usd, tripped, trip_reason, tripped_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day = excluded.day,
			start_equity_usd = excluded.start_equity_usd,
			min_equity_usd = excluded.min_equity_usd,
			realized_pnl_usd = excluded.realized_pnl_usd,
			realized_base_usd = excluded.realized_base_usd,
			turnover_usd = excluded.turnover_usd,
			tripped = excluded.tripped,
			trip_reason = excluded.trip_reason,
			tripped_at = excluded.tripped_at,
			updated_at = excluded.updated_at
	`, s.DayKey, s.StartEquityUSD, s.MinEquityUSD, s.RealizedPnLUSD, s.RealizedBaseUSD, s.TurnoverUSD,
		paused, s.PauseReason, changedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save circuit state: %w", err)
	}
	return nil
}
