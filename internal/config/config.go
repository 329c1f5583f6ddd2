// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported forecast model kinds
const (
	ModelForest = "forest"
	ModelLinear = "linear"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the database and uploads (always absolute)
	Port      int
	LogLevel  string
	DevMode   bool
	UploadDir string

	SessionSecret string
	SessionTTL    time.Duration

	Admin     AdminConfig
	Forecast  ForecastConfig
	Translate TranslateConfig
	Backup    *BackupConfig

	ActivityRetentionDays int
	ActivityPruneSchedule string
}

// AdminConfig describes the administrator account seeded at startup.
type AdminConfig struct {
	Username string
	Phone    string
	Password string
}

// ForecastConfig configures the demand forecaster.
type ForecastConfig struct {
	DataPath string // historical sales file (.csv or .xlsx)
	Model    string // forest | linear
	Trees    int
	MaxDepth int
	Seed     uint64
}

// TranslateConfig configures the LibreTranslate-compatible backend.
type TranslateConfig struct {
	URL             string
	APIKey          string
	DefaultLanguage string
}

// BackupConfig holds cloud backup configuration
type BackupConfig struct {
	Enabled         bool
	Schedule        string
	Bucket          string
	Endpoint        string // empty = AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// DatabasePath returns the marketplace database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "nexus.db")
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads configuration from environment variables without validating it.
// Offline tools use it because they need only part of the configuration.
func Read() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("NEXUS_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	uploadDir := getEnv("UPLOAD_DIR", filepath.Join(absDataDir, "product_images"))
	if uploadDir, err = filepath.Abs(uploadDir); err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("PORT", 5000),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		UploadDir:     uploadDir,
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Phone:    getEnv("ADMIN_PHONE", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Forecast: ForecastConfig{
			DataPath: getEnv("FORECAST_DATA_PATH", filepath.Join(absDataDir, "historical_data.csv")),
			Model:    strings.ToLower(getEnv("FORECAST_MODEL", ModelForest)),
			Trees:    getEnvAsInt("FORECAST_TREES", 100),
			MaxDepth: getEnvAsInt("FORECAST_MAX_DEPTH", 0),
			Seed:     uint64(getEnvAsInt("FORECAST_SEED", 42)),
		},
		Translate: TranslateConfig{
			URL:             getEnv("TRANSLATE_URL", ""),
			APIKey:          getEnv("TRANSLATE_API_KEY", ""),
			DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		},
		Backup:                loadBackupConfig(),
		ActivityRetentionDays: getEnvAsInt("ACTIVITY_RETENTION_DAYS", 90),
		ActivityPruneSchedule: getEnv("ACTIVITY_PRUNE_SCHEDULE", "0 30 3 * * *"),
	}

	if cfg.SessionSecret == "" && cfg.DevMode {
		cfg.SessionSecret = "nexus-dev-session-secret"
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("SESSION_SECRET must be at least 16 characters (or set DEV_MODE=true)")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}

	switch c.Forecast.Model {
	case ModelForest, ModelLinear:
	default:
		return fmt.Errorf("unknown FORECAST_MODEL %q (want %q or %q)", c.Forecast.Model, ModelForest, ModelLinear)
	}
	if c.Forecast.Trees <= 0 {
		return fmt.Errorf("FORECAST_TREES must be positive, got %d", c.Forecast.Trees)
	}

	// A missing forecast file is a valid configuration (forecasts are disabled),
	// but pointing at a directory is always a mistake.
	if c.Forecast.DataPath != "" {
		if info, err := os.Stat(c.Forecast.DataPath); err == nil && info.IsDir() {
			return fmt.Errorf("FORECAST_DATA_PATH %s is a directory", c.Forecast.DataPath)
		}
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if c.Backup != nil && c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return errors.New("BACKUP_BUCKET is required when BACKUP_ENABLED=true")
		}
		if c.Backup.Schedule == "" {
			return errors.New("BACKUP_SCHEDULE is required when BACKUP_ENABLED=true")
		}
	}

	return nil
}

// ForecastSourceExists reports whether the configured historical data file is present.
func (c *Config) ForecastSourceExists() bool {
	if c.Forecast.DataPath == "" {
		return false
	}
	info, err := os.Stat(c.Forecast.DataPath)
	return err == nil && !info.IsDir()
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		Region:          getEnv("BACKUP_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
