package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/utils"
)

// TickJobName is the registration name of the controller tick.
const TickJobName = "controller_tick"

// Ticker is the controller surface the tick job drives.
type Ticker interface {
	Tick(ctx context.Context) error
	Interval() time.Duration
}

// Rescheduler moves a registered job to a new schedule.
type Rescheduler interface {
	Reschedule(name, schedule string) error
}

// TickJob runs one controller tick and follows tick_interval_seconds changes.
type TickJob struct {
	ctx       context.Context
	ticker    Ticker
	scheduler Rescheduler
	timeout   time.Duration
	log       zerolog.Logger
}

// NewTickJob creates the tick job. ctx bounds every tick; timeout caps a single tick.
func NewTickJob(ctx context.Context, ticker Ticker, scheduler Rescheduler, timeout time.Duration, log zerolog.Logger) *TickJob {
	return &TickJob{
		ctx:       ctx,
		ticker:    ticker,
		scheduler: scheduler,
		timeout:   timeout,
		log:       log.With().Str("job", TickJobName).Logger(),
	}
}

// Name returns the job name
func (j *TickJob) Name() string {
	return TickJobName
}

// Run executes one tick, then reschedules if the interval setting changed.
func (j *TickJob) Run() error {
	ctx := j.ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	interval := j.ticker.Interval()
	done := utils.OperationTimer(TickJobName, interval, j.log)
	err := j.ticker.Tick(ctx)
	done()

	if interval = j.ticker.Interval(); interval > 0 && j.scheduler != nil {
		if rerr := j.scheduler.Reschedule(TickJobName, Every(interval)); rerr != nil {
			j.log.Warn().Err(rerr).Dur("interval", interval).Msg("Failed to reschedule tick")
		}
	}
	return err
}
