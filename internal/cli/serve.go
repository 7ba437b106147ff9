package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/api"
	"github.com/eventflow/efm-sync-backend/internal/application/service"
	"github.com/eventflow/efm-sync-backend/internal/application/sync"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/logging"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// RunServe runs the API server with the scheduler attached.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	store, err := storage.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	efmClient := efm.NewClient(cfg.EFM, logging.NewLoggerWithSystem(loggingCfg, "efm"))

	syncLogger := logging.NewLoggerWithSystem(loggingCfg, "sync")
	syncer := sync.NewSyncer(efmClient, store, cfg.EFM, syncLogger)
	orchestrator := sync.NewOrchestrator(syncer, store, syncLogger)

	syncService := service.NewSyncService(orchestrator, syncLogger)
	syncService.StartBackgroundCleanup(5 * time.Minute)
	defer syncService.StopBackgroundCleanup()

	if cfg.Scheduler.Enabled {
		scheduler := sync.NewScheduler(orchestrator, cfg.Scheduler.Interval, syncLogger)
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		logger.Info("Scheduler disabled, syncs run on demand only")
	}

	port := cfg.Server.Port
	if flags.Port > 0 {
		port = flags.Port
	}
	apiCfg := api.Config{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	server := api.NewServer(apiCfg, store, syncService, orchestrator, efmClient, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
