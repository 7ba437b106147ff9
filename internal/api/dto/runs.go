package dto

// SyncRunResponse is one persisted sync run.
type SyncRunResponse struct {
	ID              int64   `json:"id"`
	TriggerSource   string  `json:"trigger_source"`
	Status          string  `json:"status"`
	StartedAt       string  `json:"started_at"`
	CompletedAt     *string `json:"completed_at,omitempty"`
	TotalSynced     int     `json:"total_synced"`
	ResourcesFailed int     `json:"resources_failed"`
	Report          string  `json:"report,omitempty"`
}

// SyncRunsResponse lists persisted sync runs.
type SyncRunsResponse struct {
	Runs  []SyncRunResponse `json:"runs"`
	Count int               `json:"count"`
}
