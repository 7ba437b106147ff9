package sync

import (
	"context"
	"errors"
	"log/slog"
	stdsync "sync"
	"time"
)

// Scheduler triggers a full sync on a fixed interval. A tick that lands
// while a run is still in progress is skipped, not queued.
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	logger       *slog.Logger

	stopChan chan struct{}
	wg       stdsync.WaitGroup
	started  bool
	mu       stdsync.Mutex
}

// NewScheduler creates a scheduler that fires every interval
func NewScheduler(orchestrator *Orchestrator, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the ticker loop. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.logger.Info("Starting sync scheduler", "interval", s.interval)

	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			s.logger.Info("Sync scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) tick() {
	report, err := s.orchestrator.RunFullSync(context.Background(), "scheduled")
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.logger.Warn("Skipping scheduled sync, previous run still in progress")
			return
		}
		s.logger.Error("Scheduled sync failed", "error", err)
		return
	}
	s.logger.Info("Scheduled sync completed",
		"run_id", report.RunID,
		"total_synced", report.TotalSynced,
		"resources_failed", report.ResourcesFailed,
	)
}

// Stop halts the ticker loop and waits for it to exit. A run already in
// flight finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	close(s.stopChan)
	s.wg.Wait()
}
