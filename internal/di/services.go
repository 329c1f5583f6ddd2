package di

import (
	"context"
	"fmt"

	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/forecast"
	"github.com/nexusfarm/nexus/internal/i18n"
	"github.com/nexusfarm/nexus/internal/modules/dashboard"
	"github.com/nexusfarm/nexus/internal/modules/forecasting"
	"github.com/nexusfarm/nexus/internal/modules/orders"
	"github.com/nexusfarm/nexus/internal/modules/products"
	"github.com/nexusfarm/nexus/internal/modules/users"
	"github.com/nexusfarm/nexus/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services. The forecaster is trained once here and never
// retrained while the process runs.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	container.Sessions = auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, !cfg.DevMode)
	container.AuthMiddleware = auth.NewMiddleware(container.Sessions, log)

	images, err := products.NewImageStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}
	container.Images = images

	container.UserService = users.NewService(container.UserRepo, container.ActivityRepo, container.EventManager, log)
	container.ProductService = products.NewService(container.ProductRepo, images, container.ActivityRepo, container.EventManager, log)
	container.OrderService = orders.NewService(container.OrderRepo, container.ActivityRepo, container.EventManager, log)

	container.Forecaster = forecast.TrainFromFile(cfg.Forecast.DataPath, ForecastOptions(cfg), log)
	container.ForecastingService = forecasting.NewService(container.Forecaster)

	container.DashboardService = dashboard.NewService(
		container.UserService,
		container.ProductService,
		container.OrderService,
		container.ActivityRepo,
		container.ForecastingService,
		log,
	)

	container.Translator = i18n.NewTranslator(cfg.Translate.URL, cfg.Translate.APIKey, container.ClientDataRepo, log)
	if !container.Translator.Enabled() {
		log.Info().Msg("TRANSLATE_URL not set, translations fall back to source text")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize backup storage: %w", err)
		}
		container.BackupService = reliability.NewBackupService(container.DB, store, cfg.DataDir, container.EventManager, log)
	}

	if cfg.Admin.Username != "" {
		created, err := container.UserService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Phone, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		if created {
			log.Info().Str("username", cfg.Admin.Username).Msg("Seeded admin account")
		}
	}

	log.Debug().Msg("Services initialized")
	return nil
}

// ForecastOptions maps forecast configuration onto trainer options
func ForecastOptions(cfg *config.Config) forecast.Options {
	return forecast.Options{
		Model:    cfg.Forecast.Model,
		Trees:    cfg.Forecast.Trees,
		MaxDepth: cfg.Forecast.MaxDepth,
		Seed:     cfg.Forecast.Seed,
	}
}
