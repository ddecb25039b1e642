// Package database provides the SQLite connections backing the engine's stores.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// DatabaseProfile selects durability/speed PRAGMAs for a database.
type DatabaseProfile string

const (
	// ProfileLedger favours durability: every trade write is fsynced.
	ProfileLedger DatabaseProfile = "ledger"
	// ProfileCache favours throughput: telemetry rows may be lost on a crash.
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard sits between the two.
	ProfileStandard DatabaseProfile = "standard"
)

// Database names known to Migrate.
const (
	NameConfig    = "config"
	NamePortfolio = "portfolio"
	NameLedger    = "ledger"
	NameTelemetry = "telemetry"
)

var schemaFiles = map[string]string{
	NameConfig:    "schemas/config_schema.sql",
	NamePortfolio: "schemas/portfolio_schema.sql",
	NameLedger:    "schemas/ledger_schema.sql",
	NameTelemetry: "schemas/telemetry_schema.sql",
}

type tuning struct {
	synchronous string
	autoVacuum  string
	memoryTemp  bool
	maxOpen     int
}

var profiles = map[DatabaseProfile]tuning{
	ProfileLedger:   {synchronous: "FULL", autoVacuum: "NONE", maxOpen: 8},
	ProfileCache:    {synchronous: "OFF", autoVacuum: "FULL", memoryTemp: true, maxOpen: 4},
	ProfileStandard: {synchronous: "NORMAL", autoVacuum: "INCREMENTAL", memoryTemp: true, maxOpen: 8},
}

// DB is one named SQLite database and its profile.
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string
}

// Config holds database configuration
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string // one of the Name* constants
}

// New opens a database and verifies the connection.
func New(cfg Config) (*DB, error) {
	path, err := preparePath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("database %s: %w", cfg.Name, err)
	}

	profile := cfg.Profile
	if _, ok := profiles[profile]; !ok {
		profile = ProfileStandard
	}
	t := profiles[profile]

	conn, err := sql.Open("sqlite", dsn(path, t))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	conn.SetMaxOpenConns(t.maxOpen)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("database %s unreachable: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: path, profile: profile, name: cfg.Name}, nil
}

// preparePath makes file paths absolute and creates their directory.
// file: URIs (in-memory test databases) pass through untouched.
func preparePath(path string) (string, error) {
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("create directory for %q: %w", abs, err)
	}
	return abs, nil
}

func dsn(path string, t tuning) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"synchronous(" + t.synchronous + ")",
		"auto_vacuum(" + t.autoVacuum + ")",
	}
	if t.memoryTemp {
		pragmas = append(pragmas, "temp_store(MEMORY)")
	}
	pragmas = append(pragmas, "foreign_keys(1)", "busy_timeout(5000)", "cache_size(-16000)")

	var b strings.Builder
	b.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			b.WriteString("?_pragma=")
		} else {
			b.WriteString("&_pragma=")
		}
		b.WriteString(p)
	}
	return b.String()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Name() string {
	return db.name
}

func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

func (db *DB) Path() string {
	return db.path
}

// Migrate applies the embedded schema for this database. Schemas use
// CREATE ... IF NOT EXISTS and are safe to apply on every start.
func (db *DB) Migrate() error {
	file, ok := schemaFiles[db.name]
	if !ok {
		return nil
	}
	ddl, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", file, err)
	}
	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(ddl)); err != nil {
			return fmt.Errorf("apply schema %s to %s: %w", file, db.name, err)
		}
		return nil
	})
}

// WithTransaction runs fn in a transaction. It commits when fn returns nil and
// rolls back when fn errors or panics; a panic is returned as an error.
func WithTransaction(conn *sql.DB, fn func(*sql.Tx) error) (err error) {
	if conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// QuickCheck verifies the database answers a trivial query.
func (db *DB) QuickCheck(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%s health check failed: %w", db.name, err)
	}
	return nil
}

// WALCheckpoint forces a WAL checkpoint. Mode defaults to TRUNCATE.
func (db *DB) WALCheckpoint(mode string) error {
	if mode == "" {
		mode = "TRUNCATE"
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(" + mode + ")"); err != nil {
		return fmt.Errorf("%s WAL checkpoint (%s): %w", db.name, mode, err)
	}
	return nil
}
