package di

import (
	"fmt"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/portfolio"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.ConfigDB == nil {
		return fmt.Errorf("container databases are not initialized")
	}

	// config.db
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)

	// portfolio.db
	container.PositionRepo = portfolio.NewPositionRepository(container.PortfolioDB.Conn(), log)
	container.TargetRepo = allocation.NewTargetRepository(container.PortfolioDB.Conn(), log)
	container.CircuitStateRepo = circuit.NewStateRepository(container.PortfolioDB.Conn(), log)

	// ledger.db
	container.TradeRepo = trading.NewTradeRepository(container.LedgerDB.Conn(), log)

	log.Info().Msg("Repositories initialized")
	return nil
}
