// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived dependency and is the single source of truth for
// service instances. It is built by Wire() and handed to the HTTP server and the CLI.
package di

import (
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/clientdata"
	"github.com/nexusfarm/nexus/internal/database"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/forecast"
	"github.com/nexusfarm/nexus/internal/i18n"
	"github.com/nexusfarm/nexus/internal/modules/activity"
	"github.com/nexusfarm/nexus/internal/modules/dashboard"
	"github.com/nexusfarm/nexus/internal/modules/forecasting"
	"github.com/nexusfarm/nexus/internal/modules/orders"
	"github.com/nexusfarm/nexus/internal/modules/products"
	"github.com/nexusfarm/nexus/internal/modules/users"
	"github.com/nexusfarm/nexus/internal/reliability"
	"github.com/nexusfarm/nexus/internal/scheduler"
)

// Container holds all dependencies for the application
type Container struct {
	// Database
	DB *database.DB

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Sessions
	Sessions       *auth.Sessions
	AuthMiddleware *auth.Middleware

	// Repositories
	ClientDataRepo *clientdata.Repository
	ActivityRepo   *activity.Repository
	UserRepo       *users.Repository
	ProductRepo    *products.Repository
	OrderRepo      *orders.Repository

	// Services
	Images             *products.ImageStore
	UserService        *users.Service
	ProductService     *products.Service
	OrderService       *orders.Service
	Forecaster         *forecast.Forecaster
	ForecastingService *forecasting.Service
	DashboardService   *dashboard.Service
	Translator         *i18n.Translator
	BackupService      *reliability.BackupService // nil unless backups are enabled

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	ActivityPrune     scheduler.Job
	ClientDataCleanup scheduler.Job
	Maintenance       scheduler.Job
	Backup            scheduler.Job // nil unless backups are enabled
}

// Close releases the database
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
