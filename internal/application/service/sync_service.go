package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	appsync "github.com/eventflow/efm-sync-backend/internal/application/sync"
)

// SyncStatus represents the current state of a sync job.
type SyncStatus string

const (
	StatusPending   SyncStatus = "pending"
	StatusRunning   SyncStatus = "running"
	StatusCompleted SyncStatus = "completed"
	StatusFailed    SyncStatus = "failed"
	StatusCancelled SyncStatus = "cancelled"
)

// Job staleness thresholds
const (
	// DefaultJobStaleThreshold is how long a job can go without finishing
	// before being considered hung. A full sync normally completes well
	// within this window.
	DefaultJobStaleThreshold = 30 * time.Minute

	// DefaultJobMaxDuration is the hard ceiling on job runtime. This
	// prevents runaway jobs from holding the sync lock forever.
	DefaultJobMaxDuration = 2 * time.Hour
)

// SyncJob represents a running or completed sync job.
type SyncJob struct {
	ID            string
	TriggerSource string
	Status        SyncStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	Report        *appsync.RunReport
	Error         error
	cancelFunc    context.CancelFunc
}

// snapshot copies the job so callers can read it after jobsMutex is
// released; the live struct keeps being mutated as the job progresses.
func (j *SyncJob) snapshot() *SyncJob {
	c := *j
	c.cancelFunc = nil
	return &c
}

// SyncService runs full syncs as background jobs and tracks their lifecycle
// in memory. The orchestrator's own lock is the source of truth for mutual
// exclusion; the service layer rejects overlapping submissions early so a
// doomed job is never created.
type SyncService struct {
	orchestrator *appsync.Orchestrator
	logger       *slog.Logger

	jobs      map[string]*SyncJob
	jobsMutex sync.RWMutex

	// Submission gate, held for the lifetime of one job. A channel rather
	// than a mutex so release is idempotent: both the job goroutine and the
	// stale-job reaper may release it.
	runSlot chan struct{}

	// Background cleanup
	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewSyncService creates a new sync service.
func NewSyncService(orchestrator *appsync.Orchestrator, logger *slog.Logger) *SyncService {
	return &SyncService{
		orchestrator: orchestrator,
		logger:       logger,
		jobs:         make(map[string]*SyncJob),
		runSlot:      make(chan struct{}, 1),
	}
}

// tryAcquireRunSlot attempts to claim the single run slot.
func (s *SyncService) tryAcquireRunSlot() bool {
	select {
	case s.runSlot <- struct{}{}:
		return true
	default:
		return false
	}
}

// releaseRunSlot frees the run slot. Safe to call when already free.
func (s *SyncService) releaseRunSlot() {
	select {
	case <-s.runSlot:
	default:
	}
}

// StartSync submits a full sync as a background job and returns its ID.
// Returns appsync.ErrSyncInProgress when a job is already running.
//
// Note: the passed context is NOT used as the parent for the background job.
// Background jobs use context.Background() so they are not cancelled when
// the HTTP request completes. Use CancelSync to cancel a running job.
func (s *SyncService) StartSync(_ context.Context, triggerSource string) (string, error) {
	if !s.tryAcquireRunSlot() {
		return "", appsync.ErrSyncInProgress
	}

	jobID := uuid.NewString()
	jobCtx, cancel := context.WithCancel(context.Background())

	job := &SyncJob{
		ID:            jobID,
		TriggerSource: triggerSource,
		Status:        StatusPending,
		StartedAt:     time.Now(),
		cancelFunc:    cancel,
	}

	s.jobsMutex.Lock()
	s.jobs[jobID] = job
	s.jobsMutex.Unlock()

	go s.runSyncJob(jobCtx, job)

	s.logger.Info("Sync job submitted", "job_id", jobID, "trigger_source", triggerSource)

	return jobID, nil
}

// GetSyncJob retrieves a point-in-time copy of a sync job by ID.
func (s *SyncService) GetSyncJob(jobID string) (*SyncJob, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	return job.snapshot(), nil
}

// ListActiveSyncJobs returns all running or pending jobs.
func (s *SyncService) ListActiveSyncJobs() []*SyncJob {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	var active []*SyncJob
	for _, job := range s.jobs {
		if job.Status == StatusPending || job.Status == StatusRunning {
			active = append(active, job.snapshot())
		}
	}
	return active
}

// ListAllSyncJobs returns all jobs (for debugging/monitoring).
func (s *SyncService) ListAllSyncJobs() []*SyncJob {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]*SyncJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.snapshot())
	}
	return jobs
}

// CancelSync cancels a running sync job.
func (s *SyncService) CancelSync(jobID string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if job.Status != StatusPending && job.Status != StatusRunning {
		return fmt.Errorf("job cannot be cancelled: status=%s", job.Status)
	}

	job.cancelFunc()
	job.Status = StatusCancelled
	now := time.Now()
	job.CompletedAt = &now

	s.logger.Info("Sync job cancelled", "job_id", jobID)
	return nil
}

// runSyncJob executes the sync in a background goroutine.
func (s *SyncService) runSyncJob(ctx context.Context, job *SyncJob) {
	defer s.releaseRunSlot()

	s.setJobStatus(job.ID, StatusRunning)

	report, err := s.orchestrator.RunFullSync(ctx, job.TriggerSource)
	if err != nil {
		if ctx.Err() == context.Canceled {
			// Already marked as cancelled in CancelSync
			return
		}
		s.failJob(job.ID, err)
		return
	}

	s.completeJob(job.ID, report)
}

// setJobStatus updates a job's status.
func (s *SyncService) setJobStatus(jobID string, status SyncStatus) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		job.Status = status
	}
}

// completeJob marks a job as completed with its run report.
func (s *SyncService) completeJob(jobID string, report *appsync.RunReport) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		if job.Status == StatusCancelled {
			// The run finished anyway; keep the cancelled status but
			// attach the report for inspection.
			job.Report = report
			return
		}
		now := time.Now()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.Report = report
		s.logger.Info("Sync job completed",
			"job_id", jobID,
			"run_id", report.RunID,
			"total_synced", report.TotalSynced,
			"total_skipped", report.TotalSkipped,
			"resources_failed", report.ResourcesFailed,
		)
	}
}

// failJob marks a job as failed with an error.
func (s *SyncService) failJob(jobID string, err error) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		now := time.Now()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = err
		s.logger.Error("Sync job failed", "job_id", jobID, "error", err)
	}
}

// CleanupOldJobs removes finished jobs older than the specified duration.
func (s *SyncService) CleanupOldJobs(maxAge time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, job := range s.jobs {
		if job.Status == StatusCompleted || job.Status == StatusFailed || job.Status == StatusCancelled {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(s.jobs, id)
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Debug("Cleaned up old sync jobs", "removed", removed)
	}

	return removed
}

// MarkStaleJobsAsFailed finds jobs that appear to be stuck and marks them as
// failed. A job is stale when it has been running longer than maxDuration,
// or longer than staleThreshold without completing. This handles goroutines
// that panicked without updating job state, and genuinely stuck runs.
func (s *SyncService) MarkStaleJobsAsFailed(staleThreshold, maxDuration time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	now := time.Now()
	marked := 0

	for id, job := range s.jobs {
		if job.Status != StatusRunning && job.Status != StatusPending {
			continue
		}

		age := now.Sub(job.StartedAt)
		var reason string
		switch {
		case age > maxDuration:
			reason = fmt.Sprintf("exceeded max duration of %v (started %v ago)", maxDuration, age.Round(time.Second))
		case age > staleThreshold:
			reason = fmt.Sprintf("running for %v without completing (threshold: %v)", age.Round(time.Second), staleThreshold)
		default:
			continue
		}

		if job.cancelFunc != nil {
			job.cancelFunc()
		}

		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = fmt.Errorf("job marked as stale: %s", reason)

		// Free the submission gate so new syncs aren't blocked forever
		// by a hung goroutine
		s.releaseRunSlot()

		s.logger.Warn("Marked stale job as failed",
			"job_id", id,
			"reason", reason,
			"started_at", job.StartedAt,
		)

		marked++
	}

	return marked
}

// StartBackgroundCleanup starts a goroutine that periodically marks stale
// jobs as failed and removes old finished jobs. The cleanup runs every
// checkInterval; call StopBackgroundCleanup to stop it.
func (s *SyncService) StartBackgroundCleanup(checkInterval time.Duration) {
	s.cleanupStop = make(chan struct{})
	s.cleanupDone = make(chan struct{})

	go func() {
		defer close(s.cleanupDone)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		s.logger.Info("Background job cleanup started",
			"check_interval", checkInterval,
			"stale_threshold", DefaultJobStaleThreshold,
			"max_duration", DefaultJobMaxDuration,
		)

		for {
			select {
			case <-s.cleanupStop:
				s.logger.Info("Background job cleanup stopped")
				return
			case <-ticker.C:
				if marked := s.MarkStaleJobsAsFailed(DefaultJobStaleThreshold, DefaultJobMaxDuration); marked > 0 {
					s.logger.Info("Marked stale jobs as failed", "count", marked)
				}
				// Keep finished jobs for a day so they can still be polled
				if cleaned := s.CleanupOldJobs(24 * time.Hour); cleaned > 0 {
					s.logger.Debug("Cleaned up old jobs", "count", cleaned)
				}
			}
		}
	}()
}

// StopBackgroundCleanup stops the background cleanup goroutine.
// Blocks until the goroutine has fully stopped.
func (s *SyncService) StopBackgroundCleanup() {
	if s.cleanupStop == nil {
		return
	}

	close(s.cleanupStop)
	<-s.cleanupDone
}
