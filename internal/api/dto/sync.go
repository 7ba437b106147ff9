package dto

// TriggerSyncResponse is returned when a full sync is accepted.
type TriggerSyncResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ResourceSummaryResponse is the outcome of syncing one resource.
type ResourceSummaryResponse struct {
	Resource    string `json:"resource"`
	Success     bool   `json:"success"`
	TotalSynced int    `json:"total_synced"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Message     string `json:"message,omitempty"`
}

// RunReportResponse is the aggregated outcome of a full sync run.
type RunReportResponse struct {
	RunID           int64                              `json:"run_id,omitempty"`
	TriggerSource   string                             `json:"trigger_source"`
	StartedAt       string                             `json:"started_at"`
	CompletedAt     string                             `json:"completed_at"`
	Resources       map[string]ResourceSummaryResponse `json:"resources"`
	TotalSynced     int                                `json:"total_synced"`
	TotalSkipped    int                                `json:"total_skipped"`
	TotalFailed     int                                `json:"total_failed"`
	ResourcesFailed int                                `json:"resources_failed"`
	CompaniesFailed []int                              `json:"companies_failed,omitempty"`
}

// SyncJobResponse represents a sync job's status.
type SyncJobResponse struct {
	JobID         string             `json:"job_id"`
	TriggerSource string             `json:"trigger_source"`
	Status        string             `json:"status"`
	StartedAt     string             `json:"started_at"`
	CompletedAt   *string            `json:"completed_at,omitempty"`
	Report        *RunReportResponse `json:"report,omitempty"`
	Error         *string            `json:"error,omitempty"`
}

// SyncJobsResponse lists sync jobs.
type SyncJobsResponse struct {
	Jobs  []SyncJobResponse `json:"jobs"`
	Count int               `json:"count"`
}

// MessageResponse is a generic message response.
type MessageResponse struct {
	Message string `json:"message"`
}
