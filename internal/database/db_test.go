package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), name+".db"),
		Name: name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	db := newTestDB(t, NameConfig)
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, NameConfig, db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
}

func TestMigrate_CreatesTablesAndIsIdempotent(t *testing.T) {
	tables := map[string][]string{
		NameConfig:    {"settings"},
		NamePortfolio: {"positions", "target_candidates", "circuit_state"},
		NameLedger:    {"trades"},
		NameTelemetry: {"events"},
	}

	for name, expected := range tables {
		t.Run(name, func(t *testing.T) {
			db := newTestDB(t, name)
			require.NoError(t, db.Migrate())
			require.NoError(t, db.Migrate())

			for _, table := range expected {
				var count int
				err := db.Conn().QueryRow(
					"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
				).Scan(&count)
				require.NoError(t, err)
				assert.Equal(t, 1, count, "table %s", table)
			}
		})
	}
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "scratch")
	assert.NoError(t, db.Migrate())
}

func TestDSN_Profiles(t *testing.T) {
	ledger := dsn("x.db", profiles[ProfileLedger])
	assert.True(t, strings.HasPrefix(ledger, "x.db?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"))
	assert.NotContains(t, ledger, "temp_store")

	assert.Contains(t, dsn("x.db", profiles[ProfileCache]), "synchronous(OFF)")
	assert.Contains(t, dsn("x.db", profiles[ProfileStandard]), "synchronous(NORMAL)")
	assert.Contains(t, dsn("x.db", profiles[ProfileStandard]), "&_pragma=temp_store(MEMORY)")
}

func TestNew_UnknownProfileFallsBack(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "x", Profile: "turbo"})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestWALCheckpointAndQuickCheck(t *testing.T) {
	db := newTestDB(t, NameLedger)
	require.NoError(t, db.Migrate())
	assert.NoError(t, db.WALCheckpoint(""))
	assert.NoError(t, db.QuickCheck(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.QuickCheck(context.Background()))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newTestDB(t, NameConfig)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO settings (key, value, updated_at) VALUES ('k', 'v', 0)")
		require.NoError(t, err)
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM settings").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RecoversPanic(t *testing.T) {
	db := newTestDB(t, NameConfig)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
}
