package scheduler

import (
	"context"
	"time"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
)

// ActivityPruner deletes activity entries older than a cutoff.
// Implemented by activity.Repository.
type ActivityPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// ActivityPruneJob enforces the activity log retention window
type ActivityPruneJob struct {
	pruner    ActivityPruner
	retention time.Duration
	events    domain.EventEmitter
	now       func() time.Time
	log       zerolog.Logger
}

// NewActivityPruneJob creates the prune job. emitter may be nil.
func NewActivityPruneJob(pruner ActivityPruner, retentionDays int, emitter domain.EventEmitter, log zerolog.Logger) *ActivityPruneJob {
	return &ActivityPruneJob{
		pruner:    pruner,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		events:    emitter,
		now:       time.Now,
		log:       log.With().Str("job", "activity_prune").Logger(),
	}
}

// Name returns the job name
func (j *ActivityPruneJob) Name() string {
	return "activity_prune"
}

// Run deletes entries older than the retention window. A non-positive retention keeps
// everything.
func (j *ActivityPruneJob) Run() error {
	if j.retention <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	before := j.now().Add(-j.retention)
	deleted, err := j.pruner.Prune(ctx, before)
	if err != nil {
		return err
	}

	j.log.Info().Int64("deleted", deleted).Time("before", before).Msg("Pruned activity log")
	if deleted > 0 && j.events != nil {
		j.events.EmitTyped("scheduler", &events.ActivityPrunedData{Deleted: deleted, Before: before})
	}
	return nil
}
