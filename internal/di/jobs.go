package di

import (
	"context"
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/config"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	defaultTickInterval = 30 * time.Second
	tickTimeout         = 2 * time.Minute
	walCheckSchedule    = "@every 10m"
	retentionSchedule   = "@every 1h"
)

// RegisterJobs creates the scheduler and registers the tick, WAL and
// telemetry retention jobs. ctx bounds every tick the scheduler starts.
func RegisterJobs(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Controller == nil {
		return nil, fmt.Errorf("container services are not initialized")
	}

	sched := scheduler.New(log)
	container.Scheduler = sched
	instances := &JobInstances{}

	// ==========================================
	// Controller tick (interval follows tick_interval_seconds)
	// ==========================================
	interval := defaultTickInterval
	if snapshot, err := container.SettingsService.Snapshot(); err == nil && snapshot.TickInterval > 0 {
		interval = snapshot.TickInterval
	}
	instances.Tick = scheduler.NewTickJob(ctx, container.Controller, sched, tickTimeout, log)
	if err := sched.AddJob(scheduler.Every(interval), instances.Tick); err != nil {
		return nil, fmt.Errorf("failed to register tick job: %w", err)
	}

	// ==========================================
	// Database maintenance
	// ==========================================
	instances.WALCheckpoints = scheduler.NewCheckWALCheckpointsJob(log, container.Databases()...)
	if err := sched.AddJob(walCheckSchedule, instances.WALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	instances.TelemetryRetention = scheduler.NewTelemetryRetentionJob(container.TelemetryStore, cfg.TelemetryTTL, log)
	if err := sched.AddJob(retentionSchedule, instances.TelemetryRetention); err != nil {
		return nil, fmt.Errorf("failed to register telemetry retention job: %w", err)
	}

	log.Info().Dur("tick_interval", interval).Msg("Jobs registered")
	return instances, nil
}
