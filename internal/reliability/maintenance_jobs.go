package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/nexusfarm/nexus/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// BackupJob uploads a backup and rotates old archives
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates the scheduled backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       30 * time.Minute,
		log:           log.With().Str("job", "database_backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUpload(ctx); err != nil {
		return err
	}

	deleted, err := j.service.RotateOldBackups(ctx, j.retentionDays)
	if err != nil {
		// Upload succeeded; rotation runs again next time
		j.log.Warn().Err(err).Msg("Backup rotation failed")
		return nil
	}
	if deleted > 0 {
		j.log.Info().Int("deleted", deleted).Msg("Rotated old backups")
	}
	return nil
}

// Disk space thresholds for the maintenance job
const (
	criticalFreeBytes = 500 << 20
	lowFreeBytes      = 5 << 30
)

// MaintenanceJob checks integrity, truncates the WAL and watches free disk space
type MaintenanceJob struct {
	db      *database.DB
	dataDir string
	usage   func(path string) (*disk.UsageStat, error)
	log     zerolog.Logger
}

// NewMaintenanceJob creates the daily maintenance job
func NewMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		dataDir: dataDir,
		usage:   disk.Usage,
		log:     log.With().Str("job", "database_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting database maintenance")
	started := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("CRITICAL: Database integrity check failed")
		return err
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	if stats, err := j.db.GetStats(); err == nil {
		j.log.Info().
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_count", stats.FreelistCount).
			Msg("Database metrics")
	}

	j.log.Info().Dur("duration_ms", time.Since(started)).Msg("Database maintenance completed")
	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := j.usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	switch {
	case usage.Free < criticalFreeBytes:
		j.log.Error().Uint64("free_bytes", usage.Free).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %d bytes free on %s", usage.Free, j.dataDir)
	case usage.Free < lowFreeBytes:
		j.log.Warn().Uint64("free_bytes", usage.Free).Float64("used_percent", usage.UsedPercent).Msg("Disk space running low")
	default:
		j.log.Debug().Uint64("free_bytes", usage.Free).Msg("Disk space check")
	}
	return nil
}
