// Package testing provides test helpers shared by the engine packages.
package testing

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/database"
)

var testProfiles = map[string]database.DatabaseProfile{
	database.NameLedger:    database.ProfileLedger,
	database.NameTelemetry: database.ProfileCache,
}

// NewTestDB opens a migrated SQLite database named name under t.TempDir(),
// using the same profile production gives that database. It is closed when
// the test ends; the returned func closes it earlier and is safe to call twice.
//
// Names without a schema ("scratch") produce an empty database.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: testProfiles[name],
		Name:    name,
	})
	if err != nil {
		t.Fatalf("open test database %s: %v", name, err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("migrate test database %s: %v", name, err)
	}

	var once sync.Once
	closeDB := func() {
		once.Do(func() {
			if err := db.Close(); err != nil {
				t.Logf("close test database %s: %v", name, err)
			}
		})
	}
	t.Cleanup(closeDB)
	return db, closeDB
}
