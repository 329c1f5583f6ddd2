package domain

import (
	"context"
	"time"

	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/forecast"
)

// ActivityRecorder appends entries to the user activity log.
// Implemented by activity.Repository; kept here so users and orders don't import it.
type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, action string) error
}

// EventEmitter publishes typed events.
// Implemented by events.Manager.
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// ForecastProvider is the read-only view of a trained forecaster used by handlers
type ForecastProvider interface {
	Status() forecast.Status
	Predict(today time.Time, product string) []forecast.Result
	History(product string) (forecast.Insight, bool)
}
