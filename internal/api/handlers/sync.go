package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventflow/efm-sync-backend/internal/api/dto"
	"github.com/eventflow/efm-sync-backend/internal/application/service"
	appsync "github.com/eventflow/efm-sync-backend/internal/application/sync"
)

// SingleResourceSyncer runs one top-level resource sync synchronously.
type SingleResourceSyncer interface {
	SyncSingle(ctx context.Context, resource string) (appsync.Summary, error)
}

// SyncHandler handles sync-related HTTP requests.
type SyncHandler struct {
	*Base
	syncService *service.SyncService
	syncer      SingleResourceSyncer
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncService *service.SyncService, syncer SingleResourceSyncer) *SyncHandler {
	return &SyncHandler{
		Base:        &Base{},
		syncService: syncService,
		syncer:      syncer,
	}
}

// TriggerSync handles POST /api/efm-sync/trigger - submits a full sync as a
// background job and returns its ID immediately.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.syncService.StartSync(r.Context(), "manual")
	if err != nil {
		if errors.Is(err, appsync.ErrSyncInProgress) {
			h.WriteError(w, http.StatusConflict, dto.SyncConflictError("a sync is already in progress"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusAccepted, dto.TriggerSyncResponse{
		JobID:   jobID,
		Status:  string(service.StatusPending),
		Message: "EFM sync started successfully.",
	})
}

// SyncResource returns a handler for GET /api/{resource}/sync that
// synchronously syncs one top-level resource and returns its summary.
func (h *SyncHandler) SyncResource(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := h.syncer.SyncSingle(r.Context(), resource)
		if err != nil {
			if errors.Is(err, appsync.ErrSyncInProgress) {
				h.WriteError(w, http.StatusConflict, dto.SyncConflictError("a sync is already in progress"))
				return
			}
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
			return
		}

		h.WriteJSON(w, http.StatusOK, toSummaryResponse(summary))
	}
}

// GetSyncJob handles GET /api/sync/jobs/{jobId} - gets sync job status.
func (h *SyncHandler) GetSyncJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("job ID is required"))
		return
	}

	job, err := h.syncService.GetSyncJob(jobID)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("sync job"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toSyncJobResponse(job))
}

// ListActiveSyncJobs handles GET /api/sync/jobs/active.
func (h *SyncHandler) ListActiveSyncJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJobList(w, h.syncService.ListActiveSyncJobs())
}

// ListSyncJobs handles GET /api/sync/jobs.
func (h *SyncHandler) ListSyncJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJobList(w, h.syncService.ListAllSyncJobs())
}

func (h *SyncHandler) writeJobList(w http.ResponseWriter, jobs []*service.SyncJob) {
	response := dto.SyncJobsResponse{
		Jobs:  make([]dto.SyncJobResponse, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, toSyncJobResponse(job))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// CancelSyncJob handles DELETE /api/sync/jobs/{jobId}.
func (h *SyncHandler) CancelSyncJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("job ID is required"))
		return
	}

	if err := h.syncService.CancelSync(jobID); err != nil {
		h.WriteError(w, http.StatusConflict, dto.APIError{
			Code:    "cancel_failed",
			Message: err.Error(),
		})
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Sync job cancelled successfully",
	})
}

// toSyncJobResponse converts a service model to an API response.
func toSyncJobResponse(job *service.SyncJob) dto.SyncJobResponse {
	response := dto.SyncJobResponse{
		JobID:         job.ID,
		TriggerSource: job.TriggerSource,
		Status:        string(job.Status),
		StartedAt:     job.StartedAt.Format(time.RFC3339),
	}

	if job.CompletedAt != nil {
		completedAt := job.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completedAt
	}

	if job.Report != nil {
		report := toRunReportResponse(job.Report)
		response.Report = &report
	}

	if job.Error != nil {
		errMsg := job.Error.Error()
		response.Error = &errMsg
	}

	return response
}

// toRunReportResponse converts a run report to an API response.
func toRunReportResponse(report *appsync.RunReport) dto.RunReportResponse {
	resources := make(map[string]dto.ResourceSummaryResponse, len(report.Resources))
	for name, summary := range report.Resources {
		resources[name] = toSummaryResponse(summary)
	}

	return dto.RunReportResponse{
		RunID:           report.RunID,
		TriggerSource:   report.TriggerSource,
		StartedAt:       report.StartedAt.Format(time.RFC3339),
		CompletedAt:     report.CompletedAt.Format(time.RFC3339),
		Resources:       resources,
		TotalSynced:     report.TotalSynced,
		TotalSkipped:    report.TotalSkipped,
		TotalFailed:     report.TotalFailed,
		ResourcesFailed: report.ResourcesFailed,
		CompaniesFailed: report.CompaniesFailed,
	}
}

func toSummaryResponse(summary appsync.Summary) dto.ResourceSummaryResponse {
	return dto.ResourceSummaryResponse{
		Resource:    summary.Resource,
		Success:     summary.Success,
		TotalSynced: summary.TotalSynced,
		Skipped:     summary.Skipped,
		Failed:      summary.Failed,
		Message:     summary.Message,
	}
}
