package di

import (
	"fmt"

	"github.com/nexusfarm/nexus/internal/clientdata"
	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/reliability"
	"github.com/nexusfarm/nexus/internal/scheduler"
	"github.com/rs/zerolog"
)

// Fixed schedules (seconds field first)
const (
	clientDataCleanupSchedule = "0 15 4 * * *"
	maintenanceSchedule       = "0 0 4 * * *"
	backupRetentionDays       = 30
)

// RegisterJobs creates the scheduler and registers all jobs. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	container.Scheduler = sched
	instances := &JobInstances{}

	instances.ActivityPrune = scheduler.NewActivityPruneJob(container.ActivityRepo, cfg.ActivityRetentionDays, container.EventManager, log)
	if err := sched.AddJob(cfg.ActivityPruneSchedule, instances.ActivityPrune); err != nil {
		return nil, fmt.Errorf("failed to register activity prune job: %w", err)
	}

	instances.ClientDataCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if err := sched.AddJob(clientDataCleanupSchedule, instances.ClientDataCleanup); err != nil {
		return nil, fmt.Errorf("failed to register client data cleanup job: %w", err)
	}

	instances.Maintenance = reliability.NewMaintenanceJob(container.DB, cfg.DataDir, log)
	if err := sched.AddJob(maintenanceSchedule, instances.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, backupRetentionDays, log)
		if err := sched.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	log.Info().Int("jobs", len(sched.Jobs())).Msg("Jobs registered")
	return instances, nil
}
