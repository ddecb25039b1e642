package di

import (
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/clients/executor"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/clients/jupiter"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/clients/solana"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/config"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/controller"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/fees"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/liquidity"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/trading"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/telemetry"
	"github.com/rs/zerolog"
)

// InitializeServices creates the clients, engine modules and the controller.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.SettingsRepo == nil {
		return fmt.Errorf("container repositories are not initialized")
	}

	// ==========================================
	// Settings
	// ==========================================
	container.SettingsService = settings.NewService(container.SettingsRepo, log)
	if cfg.SettingsSeedFile != "" {
		seeded, err := container.SettingsService.SeedFromYAML(cfg.SettingsSeedFile)
		if err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}
		log.Info().Int("seeded", seeded).Str("file", cfg.SettingsSeedFile).Msg("Settings seeded from file")
	}
	if snapshot, err := container.SettingsService.Snapshot(); err != nil {
		log.Warn().Err(err).Msg("Settings snapshot unavailable at startup")
	} else {
		for _, w := range settings.Validate(snapshot) {
			log.Warn().Str("warning", w).Msg("Settings consistency warning")
		}
	}

	// ==========================================
	// Events and telemetry
	// ==========================================
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)
	container.TelemetryStore = telemetry.NewStore(container.TelemetryDB.Conn(), container.EventBus, log)
	container.Metrics = telemetry.NewMetrics(container.EventBus, log)

	// ==========================================
	// External clients
	// ==========================================
	container.JupiterClient = jupiter.NewClient(cfg.JupiterBaseURL, cfg.HTTPTimeout, log)
	container.SolanaClient = solana.NewClient(cfg.SolanaRPCURL, cfg.WalletAddress, cfg.HTTPTimeout, log)
	container.ExecutorClient = executor.NewClient(cfg.ExecutorURL, 0, log)
	if cfg.WalletAddress == "" {
		log.Warn().Msg("WALLET_ADDRESS not set; reserve balance reads will fail and entries stay gated")
	}
	if cfg.ExecutorURL == "" {
		log.Warn().Msg("EXECUTOR_URL not set; live mode cannot execute")
	}

	// ==========================================
	// Engine modules
	// ==========================================
	container.CircuitBreaker = circuit.NewBreaker(container.CircuitStateRepo, container.EventManager, log)
	container.CircuitBreaker.Load()
	container.Reconciler = allocation.NewReconciler(log)
	container.Simulator = liquidity.NewSimulator(container.JupiterClient, log)
	container.FeeGovernor = fees.NewGovernor(log)

	// ==========================================
	// Execution
	// ==========================================
	container.PaperExecutor = trading.NewPaperExecutor(container.PositionRepo, container.TradeRepo, container.JupiterClient, log)
	container.Router = trading.NewRouter(container.PaperExecutor, container.ExecutorClient, container.TradeRepo, log)

	// ==========================================
	// Controller
	// ==========================================
	container.Controller = controller.New(controller.Deps{
		Settings:     container.SettingsService,
		Positions:    container.PositionRepo,
		Targets:      container.TargetRepo,
		Prices:       container.JupiterClient,
		Wallet:       container.SolanaClient,
		PnL:          container.TradeRepo,
		Executor:     container.Router,
		Liquidations: container.PositionRepo,
		Breaker:      container.CircuitBreaker,
		Reconciler:   container.Reconciler,
		Simulator:    container.Simulator,
		Fees:         container.FeeGovernor,
		Events:       container.EventManager,
	}, log)

	log.Info().Msg("Services initialized")
	return nil
}

// CircuitLocation returns the timezone of the circuit day from the current
// settings, falling back to UTC.
func (c *Container) CircuitLocation() *time.Location {
	snapshot, err := c.SettingsService.Snapshot()
	if err != nil || snapshot.CircuitTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(snapshot.CircuitTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReserveMints returns the reserve mints from the current settings.
func (c *Container) ReserveMints() []string {
	snapshot, err := c.SettingsService.Snapshot()
	if err != nil {
		return nil
	}
	return snapshot.ReserveMints
}
