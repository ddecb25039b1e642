// Package telemetry persists engine events and exports them as metrics.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/rs/zerolog"
)

const (
	// DefaultQueryLimit is used when a query asks for no limit.
	DefaultQueryLimit = 100
	// MaxQueryLimit bounds a single query.
	MaxQueryLimit = 1000

	defaultBuffer = 1024
)

// Record is a persisted event as returned by Query.
type Record struct {
	ID        string          `json:"id"`
	TickID    string          `json:"tick_id,omitempty"`
	Type      string          `json:"type"`
	Mint      string          `json:"mint,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store writes bus events to the telemetry database from a single goroutine.
type Store struct {
	db  *sql.DB
	bus *events.Bus
	log zerolog.Logger

	ch   chan events.Event
	done chan struct{}
	once sync.Once
}

// NewStore creates a store over the telemetry database.
func NewStore(db *sql.DB, bus *events.Bus, log zerolog.Logger) *Store {
	return &Store{
		db:   db,
		bus:  bus,
		log:  log.With().Str("repository", "telemetry").Logger(),
		done: make(chan struct{}),
	}
}

// Start subscribes to the bus and writes events until Stop is called.
func (s *Store) Start() {
	s.ch = s.bus.Subscribe("telemetry_store", defaultBuffer)
	go s.run()
	s.log.Info().Msg("Telemetry store started")
}

// Stop unsubscribes and waits for buffered events to be written.
func (s *Store) Stop() {
	s.once.Do(func() {
		if s.ch == nil {
			close(s.done)
			return
		}
		s.bus.Unsubscribe(s.ch)
		<-s.done
		s.log.Info().Msg("Telemetry store stopped")
	})
}

func (s *Store) run() {
	defer close(s.done)
	for event := range s.ch {
		if err := s.Write(context.Background(), event); err != nil {
			s.log.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Failed to persist event")
		}
	}
}

// Write persists a single event. Duplicate IDs are ignored.
func (s *Store) Write(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO events (id, tick_id, type, mint, reason, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		nullString(event.TickID),
		string(event.Type),
		nullString(event.Mint),
		nullString(event.Reason),
		string(payload),
		event.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Query returns the most recent events, newest first. An empty eventType matches all types.
func (s *Store) Query(ctx context.Context, eventType string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	limit = min(limit, MaxQueryLimit)

	query := `SELECT id, tick_id, type, mint, reason, payload, created_at FROM events`
	args := []interface{}{}
	if eventType != "" {
		query += ` WHERE type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			r       Record
			tickID  sql.NullString
			mint    sql.NullString
			reason  sql.NullString
			payload string
			created int64
		)
		if err := rows.Scan(&r.ID, &tickID, &r.Type, &mint, &reason, &payload, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		r.TickID = tickID.String
		r.Mint = mint.String
		r.Reason = reason.String
		r.Payload = json.RawMessage(payload)
		r.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return records, nil
}

// Prune deletes events older than cutoff and returns the number removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		s.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned telemetry")
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
