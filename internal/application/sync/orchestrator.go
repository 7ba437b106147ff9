package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	stdsync "sync"
	"time"

	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// ErrSyncInProgress is returned when a sync is requested while another run
// holds the orchestrator lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// companyFanOutWorkers bounds the per-company owner/discount sync goroutines.
const companyFanOutWorkers = 5

// RunReport is the aggregated outcome of one full orchestration run
type RunReport struct {
	RunID           int64              `json:"run_id,omitempty"`
	TriggerSource   string             `json:"trigger_source"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
	Resources       map[string]Summary `json:"resources"`
	TotalSynced     int                `json:"total_synced"`
	TotalSkipped    int                `json:"total_skipped"`
	TotalFailed     int                `json:"total_failed"`
	ResourcesFailed int                `json:"resources_failed"`
	CompaniesFailed []int              `json:"companies_failed,omitempty"`
}

// Orchestrator coordinates a full sync across every EFM resource. At most
// one run executes at a time; overlapping triggers are rejected rather than
// queued.
type Orchestrator struct {
	syncer *Syncer
	runs   storage.SyncRunRepository
	logger *slog.Logger
	mu     stdsync.Mutex
}

// NewOrchestrator creates a new sync orchestrator. runs may be nil, in which
// case run history is not persisted.
func NewOrchestrator(syncer *Syncer, runs storage.SyncRunRepository, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		syncer: syncer,
		runs:   runs,
		logger: logger,
	}
}

// RunFullSync executes one complete pass over all resources: the five
// top-level resources concurrently, then owners and discount codes for every
// company seen this pass. Returns ErrSyncInProgress when another run holds
// the lock. The lock is released on every exit path, including panics in
// resource syncs surfaced as errors.
func (o *Orchestrator) RunFullSync(ctx context.Context, triggerSource string) (*RunReport, error) {
	if !o.mu.TryLock() {
		o.logger.Warn("Sync trigger rejected, another run is in progress", "trigger_source", triggerSource)
		return nil, ErrSyncInProgress
	}
	defer o.mu.Unlock()

	report := &RunReport{
		TriggerSource: triggerSource,
		StartedAt:     time.Now(),
		Resources:     make(map[string]Summary),
	}

	if o.runs != nil {
		runID, err := o.runs.StartSyncRun(triggerSource)
		if err != nil {
			o.logger.Warn("Failed to start sync run tracking", "error", err)
			// Tracking failure shouldn't block the sync
		} else {
			report.RunID = runID
		}
	}

	o.logger.Info("Starting full sync", "trigger_source", triggerSource, "run_id", report.RunID)

	companyIDs := o.runTopLevel(ctx, report)
	o.runCompanyFanOut(ctx, report, companyIDs)

	report.CompletedAt = time.Now()
	for _, summary := range report.Resources {
		report.TotalSynced += summary.TotalSynced
		report.TotalSkipped += summary.Skipped
		report.TotalFailed += summary.Failed
		if !summary.Success {
			report.ResourcesFailed++
		}
	}

	o.persistRun(report)

	o.logger.Info("Full sync finished",
		"trigger_source", triggerSource,
		"run_id", report.RunID,
		"total_synced", report.TotalSynced,
		"total_skipped", report.TotalSkipped,
		"total_failed", report.TotalFailed,
		"resources_failed", report.ResourcesFailed,
		"duration", report.CompletedAt.Sub(report.StartedAt),
	)

	return report, nil
}

// runTopLevel syncs the five top-level resources concurrently and returns
// the company IDs collected for the fan-out phase.
func (o *Orchestrator) runTopLevel(ctx context.Context, report *RunReport) []int {
	var (
		wg         stdsync.WaitGroup
		resultMu   stdsync.Mutex
		companyIDs []int
	)

	record := func(summary Summary) {
		resultMu.Lock()
		report.Resources[summary.Resource] = summary
		resultMu.Unlock()
	}

	syncs := []func(context.Context) Summary{
		o.syncer.SyncCountries,
		o.syncer.SyncCities,
		o.syncer.SyncVenues,
		o.syncer.SyncEvents,
	}
	for _, run := range syncs {
		wg.Add(1)
		go func(run func(context.Context) Summary) {
			defer wg.Done()
			record(run(ctx))
		}(run)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, ids := o.syncer.SyncCompanies(ctx)
		record(summary)
		resultMu.Lock()
		companyIDs = ids
		resultMu.Unlock()
	}()

	wg.Wait()
	return companyIDs
}

// runCompanyFanOut syncs owners and discount codes for each company. A
// failing company is recorded and does not stop the others; per-resource
// summaries are aggregated across all companies.
func (o *Orchestrator) runCompanyFanOut(ctx context.Context, report *RunReport, companyIDs []int) {
	owners := Summary{Resource: ResourceOwners, Success: true}
	discounts := Summary{Resource: ResourceDiscountCodes, Success: true}

	if len(companyIDs) == 0 {
		report.Resources[ResourceOwners] = owners
		report.Resources[ResourceDiscountCodes] = discounts
		return
	}

	var (
		wg       stdsync.WaitGroup
		resultMu stdsync.Mutex
		failed   []int
		sem      = make(chan struct{}, companyFanOutWorkers)
	)

	for _, companyID := range companyIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(companyID int) {
			defer wg.Done()
			defer func() { <-sem }()

			ownerSummary := o.syncer.SyncOwners(ctx, companyID)
			discountSummary := o.syncer.SyncDiscountCodes(ctx, companyID)

			resultMu.Lock()
			defer resultMu.Unlock()
			aggregate(&owners, ownerSummary)
			aggregate(&discounts, discountSummary)
			if !ownerSummary.Success || !discountSummary.Success {
				failed = append(failed, companyID)
				o.logger.Warn("Company-scoped sync failed, continuing with remaining companies",
					"company_id", companyID,
					"owners_ok", ownerSummary.Success,
					"discount_codes_ok", discountSummary.Success,
				)
			}
		}(companyID)
	}
	wg.Wait()

	sort.Ints(failed)
	report.CompaniesFailed = failed
	report.Resources[ResourceOwners] = owners
	report.Resources[ResourceDiscountCodes] = discounts
}

// aggregate folds one company's summary into the resource-wide summary
func aggregate(total *Summary, part Summary) {
	total.TotalSynced += part.TotalSynced
	total.Skipped += part.Skipped
	total.Failed += part.Failed
	if !part.Success {
		total.Success = false
		if total.Message == "" {
			total.Message = part.Message
		}
	}
}

// persistRun records the run outcome, warning on failure
func (o *Orchestrator) persistRun(report *RunReport) {
	if o.runs == nil || report.RunID == 0 {
		return
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		o.logger.Warn("Failed to marshal run report", "run_id", report.RunID, "error", err)
		reportJSON = []byte("{}")
	}
	if err := o.runs.CompleteSyncRun(report.RunID, report.TotalSynced, report.ResourcesFailed, string(reportJSON)); err != nil {
		o.logger.Warn("Failed to complete sync run tracking", "run_id", report.RunID, "error", err)
	}
}

// SyncSingle runs one top-level resource under the orchestrator lock, so a
// single-resource trigger can never interleave with a full run.
func (o *Orchestrator) SyncSingle(ctx context.Context, resource string) (Summary, error) {
	if !o.mu.TryLock() {
		return Summary{}, ErrSyncInProgress
	}
	defer o.mu.Unlock()

	return o.syncer.SyncResource(ctx, resource)
}
