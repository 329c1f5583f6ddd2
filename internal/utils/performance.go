package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowOperation is the duration above which OperationTimer logs a warning
const slowOperation = 10 * time.Second

// OperationTimer provides a defer-friendly way to measure operation duration.
// The returned func logs and returns the elapsed time.
//
// Usage:
//
//	stop := utils.OperationTimer("database_backup", log)
//	defer stop()
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > slowOperation {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
		return duration
	}
}
