package di

import (
	"fmt"

	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the marketplace database and applies the schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "nexus",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return &Container{DB: db}, nil
}
