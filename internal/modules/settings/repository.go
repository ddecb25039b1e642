// Package settings holds the engine's runtime configuration.
// Values live in the settings table of config.db and are re-read every tick.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository stores raw setting strings. Parsing and defaults belong to Service.
type Repository struct {
	db  *sql.DB // config.db
	log zerolog.Logger
}

// NewRepository creates a new settings repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get returns the stored value for key, or nil when the key was never written.
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return &value, nil
}

// Set upserts a value. A nil description keeps whatever description is stored.
func (r *Repository) Set(key, value string, description *string) error {
	var desc sql.NullString
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			description = COALESCE(excluded.description, settings.description),
			updated_at = excluded.updated_at`,
		key, value, desc, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent writes a value only when the key has never been set.
// Returns true when the value was written.
func (r *Repository) SetIfAbsent(key, value string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		key, value, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to seed setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to seed setting %s: %w", key, err)
	}
	return n > 0, nil
}

// GetAll returns every stored key and its raw value.
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		stored[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return stored, nil
}

// Delete removes a stored value so the default applies again. Deleting a
// missing key is not an error.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	r.log.Debug().Str("key", key).Msg("Setting reverted to default")
	return nil
}

// parseBool treats "true", "1", "1.0", "yes" and "on" as true (case-insensitive).
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "1.0", "yes", "on":
		return true
	}
	return false
}
