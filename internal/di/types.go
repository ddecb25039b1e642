// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/clients/executor"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/clients/jupiter"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/clients/solana"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/controller"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/database"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/fees"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/liquidity"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/portfolio"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/trading"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/scheduler"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/telemetry"
)

// Container holds every long-lived dependency of the engine process.
//
// Databases: config (settings), portfolio (positions, targets, circuit state),
// ledger (trades), telemetry (events).
type Container struct {
	// Databases
	ConfigDB    *database.DB
	PortfolioDB *database.DB
	LedgerDB    *database.DB
	TelemetryDB *database.DB

	// Repositories
	SettingsRepo     *settings.Repository
	PositionRepo     *portfolio.PositionRepository
	TargetRepo       *allocation.TargetRepository
	TradeRepo        *trading.TradeRepository
	CircuitStateRepo *circuit.StateRepository

	// Clients
	JupiterClient  *jupiter.Client
	SolanaClient   *solana.Client
	ExecutorClient *executor.Client

	// Events and telemetry
	EventBus       *events.Bus
	EventManager   *events.Manager
	TelemetryStore *telemetry.Store
	Metrics        *telemetry.Metrics

	// Services
	SettingsService *settings.Service
	CircuitBreaker  *circuit.Breaker
	Reconciler      *allocation.Reconciler
	Simulator       *liquidity.Simulator
	FeeGovernor     *fees.Governor
	PaperExecutor   *trading.PaperExecutor
	Router          *trading.Router
	Controller      *controller.Controller

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the scheduled jobs for manual triggering.
type JobInstances struct {
	Tick               *scheduler.TickJob
	WALCheckpoints     *scheduler.CheckWALCheckpointsJob
	TelemetryRetention *scheduler.TelemetryRetentionJob
}

// Databases returns the open databases in initialization order.
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.ConfigDB, c.PortfolioDB, c.LedgerDB, c.TelemetryDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close stops background consumers and closes every database.
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.TelemetryStore != nil {
		c.TelemetryStore.Stop()
	}
	if c.Metrics != nil {
		c.Metrics.Stop()
	}
	for _, db := range c.Databases() {
		_ = db.Close()
	}
}
