package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventflow/efm-sync-backend/internal/api/handlers"
	"github.com/eventflow/efm-sync-backend/internal/api/middleware"
	"github.com/eventflow/efm-sync-backend/internal/application/service"
	"github.com/eventflow/efm-sync-backend/internal/application/sync"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config       Config
	router       chi.Router
	httpServer   *http.Server
	logger       *slog.Logger
	repo         storage.Repository
	syncService  *service.SyncService
	syncer       handlers.SingleResourceSyncer
	efmDiscounts handlers.DiscountCodeWriter
}

// NewServer creates a new API server.
// If syncService is nil, sync trigger and job endpoints are not mounted; if
// efmDiscounts is nil, the discount code write endpoints are not mounted.
func NewServer(
	cfg Config,
	repo storage.Repository,
	syncService *service.SyncService,
	syncer handlers.SingleResourceSyncer,
	efmDiscounts handlers.DiscountCodeWriter,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:       cfg,
		router:       chi.NewRouter(),
		logger:       logger,
		repo:         repo,
		syncService:  syncService,
		syncer:       syncer,
		efmDiscounts: efmDiscounts,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		// Sync run history
		runsHandler := handlers.NewRunsHandler(s.repo)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)

		// Discount code writes, proxied to EFM
		if s.efmDiscounts != nil {
			discountsHandler := handlers.NewDiscountsHandler(s.repo, s.efmDiscounts)
			r.Post("/discount-codes", discountsHandler.Create)
			r.Put("/discount-codes/{id}", discountsHandler.Update)
		}

		// Sync operations
		if s.syncService != nil {
			syncHandler := handlers.NewSyncHandler(s.syncService, s.syncer)
			r.Post("/efm-sync/trigger", syncHandler.TriggerSync)
			r.Get("/sync/jobs", syncHandler.ListSyncJobs)
			r.Get("/sync/jobs/active", syncHandler.ListActiveSyncJobs)
			r.Get("/sync/jobs/{jobId}", syncHandler.GetSyncJob)
			r.Delete("/sync/jobs/{jobId}", syncHandler.CancelSyncJob)

			// Per-resource synchronous sync. Registered per resource so an
			// unknown path 404s at the router instead of reaching the syncer.
			for _, resource := range sync.TopLevelResources() {
				r.Get("/"+resource+"/sync", syncHandler.SyncResource(resource))
			}
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
