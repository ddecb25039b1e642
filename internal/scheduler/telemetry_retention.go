package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
)

// Pruner deletes records older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// TelemetryRetentionJob deletes telemetry older than the retention window.
type TelemetryRetentionJob struct {
	store     Pruner
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewTelemetryRetentionJob creates a retention job keeping retention worth of events.
func NewTelemetryRetentionJob(store Pruner, retention time.Duration, log zerolog.Logger) *TelemetryRetentionJob {
	return &TelemetryRetentionJob{
		store:     store,
		retention: retention,
		now:       time.Now,
		log:       log.With().Str("job", "telemetry_retention").Logger(),
	}
}

// Name returns the job name
func (j *TelemetryRetentionJob) Name() string {
	return "telemetry_retention"
}

// Run executes the retention job
func (j *TelemetryRetentionJob) Run() error {
	if j.retention <= 0 {
		return nil
	}
	cutoff := j.now().Add(-j.retention)
	done := utils.MeasureDBQuery("prune_telemetry", j.log)
	deleted, err := j.store.Prune(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune telemetry: %w", err)
	}
	done(deleted)
	j.log.Debug().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Telemetry retention applied")
	return nil
}
