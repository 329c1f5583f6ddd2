// Package server provides the HTTP server and routing for Nexus.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/di"
	"github.com/nexusfarm/nexus/internal/domain"
	i18nhandlers "github.com/nexusfarm/nexus/internal/i18n/handlers"
	dashboardhandlers "github.com/nexusfarm/nexus/internal/modules/dashboard/handlers"
	forecastinghandlers "github.com/nexusfarm/nexus/internal/modules/forecasting/handlers"
	ordershandlers "github.com/nexusfarm/nexus/internal/modules/orders/handlers"
	productshandlers "github.com/nexusfarm/nexus/internal/modules/products/handlers"
	usershandlers "github.com/nexusfarm/nexus/internal/modules/users/handlers"
)

const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server with all routes mounted
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Container.DB,
			cfg.Container.Scheduler,
			cfg.Container.EventBus,
			cfg.Config.DataDir,
			cfg.Log,
		),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// Long-lived streams bypass the timeout and compression
	s.router.Use(unlessStream(middleware.Timeout(requestTimeout)))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(unlessStream(middleware.Compress(5)))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container
	authMW := c.AuthMiddleware
	defaultLang := s.cfg.Translate.DefaultLanguage

	s.router.Get("/health", s.handleHealth)

	// Uploaded product images
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(c.Images.Dir()))))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(authMW.Load)

		usershandlers.NewHandler(c.UserService, c.Sessions, defaultLang, s.log).RegisterRoutes(r)
		productshandlers.NewHandler(c.ProductService, authMW, s.log).RegisterRoutes(r)

		ordersHandler := ordershandlers.NewHandler(c.OrderService, authMW, c.EventBus, s.log)
		if s.cfg.DevMode {
			ordersHandler.SetOriginPatterns([]string{"localhost:*", "127.0.0.1:*"})
		}
		ordersHandler.RegisterRoutes(r)

		forecastinghandlers.NewHandler(c.ForecastingService, authMW, s.log).RegisterRoutes(r)
		dashboardhandlers.NewHandler(c.DashboardService, authMW, s.log).RegisterRoutes(r)
		i18nhandlers.NewHandler(c.Translator, c.Sessions, defaultLang, s.log).RegisterRoutes(r)

		// Operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW.RequireRole(domain.RoleAdmin))

			r.Get("/system", s.systemHandlers.HandleSystemStatus)
			r.Get("/system/database", s.systemHandlers.HandleDatabaseStats)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{name}/run", s.systemHandlers.HandleTriggerJob)
			r.Get("/events/stream", NewEventsStreamHandler(c.EventBus, s.log).ServeHTTP)
		})
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// unlessStream applies mw to every request except streaming endpoints
func unlessStream(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/stream") {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
