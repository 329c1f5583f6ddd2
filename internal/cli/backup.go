package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newBackupCmd(global *globalOptions) *cobra.Command {
	var rotateDays int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database and upload it to the backup bucket",
		Long: `Take a consistent snapshot of the marketplace database, package it as a
tar.gz archive with checksum metadata and upload it to the S3-compatible
bucket configured with BACKUP_BUCKET. BACKUP_ENABLED is not required.`,
		Example: `  nexusctl backup
  nexusctl backup --rotate 30
  nexusctl backup list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackupService(cmd, global, func(ctx context.Context, svc *reliability.BackupService) error {
				return runBackup(ctx, cmd.OutOrStdout(), svc, rotateDays)
			})
		},
	}
	cmd.Flags().IntVar(&rotateDays, "rotate", 0, "after uploading, delete backups older than this many days (0 = keep all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List uploaded backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackupService(cmd, global, func(ctx context.Context, svc *reliability.BackupService) error {
				return runBackupList(ctx, cmd.OutOrStdout(), svc)
			})
		},
	})

	return cmd
}

// withBackupService opens the database and the bucket for the duration of fn
func withBackupService(cmd *cobra.Command, global *globalOptions, fn func(context.Context, *reliability.BackupService) error) error {
	cfg, err := global.config()
	if err != nil {
		return err
	}
	log := global.logger(cmd)
	ctx := cmd.Context()

	store, err := newBackupStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	container, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(ctx, reliability.NewBackupService(container.DB, store, cfg.DataDir, nil, log))
}

func newBackupStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*reliability.S3Client, error) {
	if cfg.Backup == nil || cfg.Backup.Bucket == "" {
		return nil, errors.New("BACKUP_BUCKET is not configured")
	}
	return reliability.NewS3Client(ctx, reliability.S3Config{
		Bucket:          cfg.Backup.Bucket,
		Endpoint:        cfg.Backup.Endpoint,
		Region:          cfg.Backup.Region,
		AccessKeyID:     cfg.Backup.AccessKeyID,
		SecretAccessKey: cfg.Backup.SecretAccessKey,
	}, log)
}

func runBackup(ctx context.Context, out io.Writer, svc *reliability.BackupService, rotateDays int) error {
	result, err := svc.CreateAndUpload(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintf(out, "✓ Uploaded %s (%d bytes, %s) in %s\n",
		result.Key, result.Bytes, result.Checksum, result.Duration.Round(time.Millisecond))

	if rotateDays > 0 {
		deleted, err := svc.RotateOldBackups(ctx, rotateDays)
		if err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
		fmt.Fprintf(out, "Deleted %d backups older than %d days\n", deleted, rotateDays)
	}
	return nil
}

func runBackupList(ctx context.Context, out io.Writer, svc *reliability.BackupService) error {
	backups, err := svc.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tSIZE\tAGE (h)")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", b.Filename, b.SizeBytes, b.AgeHours)
	}
	return tw.Flush()
}
