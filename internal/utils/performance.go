package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowQueryThreshold is the duration after which MeasureDBQuery warns.
var SlowQueryThreshold = 5 * time.Second

// OperationTimer starts a timer for operation and returns the function that
// stops it. The stop function logs the elapsed time at debug level, or at warn
// level when it exceeded warnAfter (zero disables the warning).
//
//	done := utils.OperationTimer("controller_tick", interval, log)
//	err := ticker.Tick(ctx)
//	done()
func OperationTimer(operation string, warnAfter time.Duration, log zerolog.Logger) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		logElapsed(log, elapsed, warnAfter).
			Str("operation", operation).
			Dur("elapsed", elapsed).
			Msg("Operation timing")
		return elapsed
	}
}

// MeasureDBQuery is OperationTimer for statements that report affected rows.
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rowsAffected int64) {
	start := time.Now()
	return func(rowsAffected int64) {
		elapsed := time.Since(start)
		logElapsed(log, elapsed, SlowQueryThreshold).
			Str("query", queryName).
			Dur("elapsed", elapsed).
			Int64("rows_affected", rowsAffected).
			Msg("Query timing")
	}
}

func logElapsed(log zerolog.Logger, elapsed, warnAfter time.Duration) *zerolog.Event {
	if warnAfter > 0 && elapsed > warnAfter {
		return log.Warn().Bool("slow", true).Dur("threshold", warnAfter)
	}
	return log.Debug()
}
