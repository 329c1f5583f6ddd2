/*
Package cli implements nexusctl, the offline companion to the Nexus server.

Commands share the server's configuration (environment and .env) and its
database, so they can run next to a live server or on a copy of its data.
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/di"
	"github.com/nexusfarm/nexus/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	dataDir  string
	logLevel string
}

// NewRootCmd creates the nexusctl command tree
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "nexusctl",
		Short: "Maintenance tools for the Nexus farm marketplace",
		Long: `nexusctl runs offline tasks against a Nexus installation: trying the
demand forecaster on a sales file, seeding administrator accounts and taking
database backups outside the server's schedule.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides NEXUS_DATA_DIR)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newForecastCmd(opts))
	root.AddCommand(newCreateAdminCmd(opts))
	root.AddCommand(newBackupCmd(opts))

	return root
}

func (o *globalOptions) logger(cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Config{
		Level:  o.logLevel,
		Pretty: true,
		Out:    cmd.ErrOrStderr(),
	})
}

// config reads the environment without validation and applies --data-dir
func (o *globalOptions) config() (*config.Config, error) {
	if o.dataDir != "" {
		abs, err := filepath.Abs(o.dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		if err := os.Setenv("NEXUS_DATA_DIR", abs); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openDatabase opens and migrates the configured database with repositories attached
func openDatabase(cfg *config.Config, log zerolog.Logger) (*di.Container, error) {
	container, err := di.InitializeDatabases(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := di.InitializeRepositories(container, log); err != nil {
		container.Close()
		return nil, err
	}
	return container, nil
}
