// Package main is the entry point for the trade admission and portfolio
// reconciliation engine. It wires the databases, adapters and controller,
// serves the operator API and runs the controller tick on a schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/config"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/di"
	allocationhandlers "github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/allocation/handlers"
	portfoliohandlers "github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/portfolio/handlers"
	settingshandlers "github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/settings/handlers"
	tradinghandlers "github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/trading/handlers"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/server"
	"github.com/cstahmer1/solana-trading-bot-sub001/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from the environment (.env supported)
// 2. Initializes logging
// 3. Wires databases, repositories, services and jobs via the DI container
// 4. Starts telemetry consumers, the scheduler and the HTTP server
// 5. Waits for a shutdown signal and stops everything in reverse order
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "engine",
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("executor_configured", cfg.ExecutorURL != "").
		Msg("Starting trade admission engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Engine:    container.Controller,
		Telemetry: container.TelemetryStore,
		Metrics:   container.Metrics.Handler(),
		Bus:       container.EventBus,
		Databases: container.Databases(),
		Modules: []server.RouteRegistrar{
			settingshandlers.NewHandler(container.SettingsService, container.EventManager, log),
			allocationhandlers.NewHandler(container.TargetRepo, container.Controller, container.EventManager, log),
			portfoliohandlers.NewHandler(container.PositionRepo, container.JupiterClient, container.SolanaClient,
				container.ReserveMints, cfg.HTTPTimeout, log),
			tradinghandlers.NewTradingHandlers(container.TradeRepo, container.Router, container.CircuitLocation, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	container.Start()

	// First tick runs immediately rather than waiting a full interval.
	go func() {
		if err := container.Scheduler.RunNow(jobs.Tick); err != nil {
			log.Warn().Err(err).Msg("Initial tick failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stops the scheduler (waiting for a running tick), then telemetry, then databases.
	cancel()
	container.Close()

	log.Info().Msg("Engine stopped")
}
