package di

import (
	"fmt"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/config"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the four engine databases and applies their schemas.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	specs := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		{database.NameConfig, database.ProfileStandard, &container.ConfigDB},
		{database.NamePortfolio, database.ProfileStandard, &container.PortfolioDB},
		{database.NameLedger, database.ProfileLedger, &container.LedgerDB},      // Maximum safety for the audit trail
		{database.NameTelemetry, database.ProfileCache, &container.TelemetryDB}, // Losable on crash
	}

	for _, spec := range specs {
		db, err := database.New(database.Config{
			Path:    cfg.DatabasePath(spec.name),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", spec.name, err)
		}
		*spec.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", spec.name, err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")
	return container, nil
}
