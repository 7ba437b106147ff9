package cli

import (
	"context"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/application/sync"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/logging"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// RunSync performs a one-shot sync from the command line: a full run, or a
// single resource when -resource is set.
func RunSync(cfg *config.Config, flags *SyncFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "sync")

	store, err := storage.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	efmClient := efm.NewClient(cfg.EFM, logging.NewLoggerWithSystem(loggingCfg, "efm"))
	syncer := sync.NewSyncer(efmClient, store, cfg.EFM, logger)
	orchestrator := sync.NewOrchestrator(syncer, store, logger)

	ctx := context.Background()

	if flags.Resource != "" {
		summary, err := orchestrator.SyncSingle(ctx, flags.Resource)
		if err != nil {
			return err
		}
		PrintSummary(summary)
		return nil
	}

	report, err := orchestrator.RunFullSync(ctx, "cli")
	if err != nil {
		return err
	}
	PrintRunReport(report)
	return nil
}
