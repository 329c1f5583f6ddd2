// Package reliability provides database backups to object storage and maintenance jobs.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nexusfarm/nexus/internal/database"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
)

const (
	backupPrefix    = "nexus-backup-"
	backupSuffix    = ".tar.gz"
	backupTimestamp = "2006-01-02-150405"
	metadataFile    = "backup-metadata.json"
	snapshotFile    = "nexus.db"

	// MinBackupsToKeep survive rotation regardless of age
	MinBackupsToKeep = 3
)

// BackupMetadata is written into every archive
type BackupMetadata struct {
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Database  DatabaseMetadata `json:"database"`
}

// DatabaseMetadata describes the snapshot inside an archive
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo is one archive in the bucket
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupResult summarises a completed upload
type BackupResult struct {
	Key      string
	Bytes    int64
	Checksum string
	Duration time.Duration
}

// BackupService snapshots the marketplace database and uploads it as a tar.gz archive
type BackupService struct {
	db      *database.DB
	store   ObjectStore
	dataDir string
	events  domain.EventEmitter
	now     func() time.Time
	log     zerolog.Logger
}

// NewBackupService creates a backup service. emitter may be nil.
func NewBackupService(db *database.DB, store ObjectStore, dataDir string, emitter domain.EventEmitter, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:      db,
		store:   store,
		dataDir: dataDir,
		events:  emitter,
		now:     time.Now,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUpload snapshots the database, archives it with checksum metadata and uploads it.
func (s *BackupService) CreateAndUpload(ctx context.Context) (*BackupResult, error) {
	s.log.Info().Msg("Starting backup")
	started := s.now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	snapshotPath := filepath.Join(stagingDir, snapshotFile)
	if err := s.db.SnapshotTo(ctx, snapshotPath); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := fileChecksum(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum snapshot: %w", err)
	}

	metadata := BackupMetadata{
		Timestamp: started.UTC(),
		Version:   "1",
		Database: DatabaseMetadata{
			Name:      s.db.Name(),
			Filename:  snapshotFile,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		},
	}
	if err := writeMetadata(filepath.Join(stagingDir, metadataFile), metadata); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	archiveName := backupPrefix + started.UTC().Format(backupTimestamp) + backupSuffix
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, stagingDir, []string{snapshotFile, metadataFile}); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	archiveSum, err := fileChecksum(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	if err := s.store.Upload(ctx, archiveName, archive, archiveInfo.Size()); err != nil {
		return nil, err
	}

	result := &BackupResult{
		Key:      archiveName,
		Bytes:    archiveInfo.Size(),
		Checksum: archiveSum,
		Duration: s.now().Sub(started),
	}

	s.log.Info().
		Dur("duration_ms", result.Duration).
		Str("archive", archiveName).
		Int64("size_bytes", result.Bytes).
		Msg("Backup completed successfully")

	if s.events != nil {
		s.events.EmitTyped("reliability", &events.BackupCompletedData{
			Key:      result.Key,
			Bytes:    result.Bytes,
			Checksum: result.Checksum,
			Duration: result.Duration.Seconds(),
		})
	}
	return result, nil
}

// ListBackups returns archives in the bucket, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, backupPrefix) || !strings.HasSuffix(obj.Key, backupSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(obj.Key, backupPrefix), backupSuffix)
		ts, err := time.Parse(backupTimestamp, stamp)
		if err != nil {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: ts,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes archives older than retentionDays, always keeping the newest
// MinBackupsToKeep. retentionDays <= 0 keeps everything.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= MinBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, b := range backups[MinBackupsToKeep:] {
		if !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", b.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", b.Filename).Time("timestamp", b.Timestamp).Msg("Deleted old backup")
		deleted++
	}
	return deleted, nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, names []string) (err error) {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, name := range names {
		if err := addFileToArchive(tw, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFileToArchive(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if err := tw.WriteHeader(&tar.Header{
		Name:    name,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
