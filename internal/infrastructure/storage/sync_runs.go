package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// StartSyncRun records the start of an orchestration run
func (s *Store) StartSyncRun(triggerSource string) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO sync_runs (trigger_source, status) VALUES (?, 'running')
	`, triggerSource)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteSyncRun records the outcome of an orchestration run
func (s *Store) CompleteSyncRun(runID int64, totalSynced, resourcesFailed int, reportJSON string) error {
	query := `
		UPDATE sync_runs
		SET completed_at = CURRENT_TIMESTAMP,
		    total_synced = ?,
		    resources_failed = ?,
		    report_json = ?,
		    status = CASE WHEN ? > 0 THEN 'completed_with_errors' ELSE 'completed' END
		WHERE id = ?
	`
	_, err := s.db.Exec(query, totalSynced, resourcesFailed, reportJSON, resourcesFailed, runID)
	return err
}

// GetSyncRun retrieves a sync run by ID
func (s *Store) GetSyncRun(runID int64) (*SyncRun, error) {
	run := &SyncRun{}
	var completedAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, trigger_source, status, started_at, completed_at, total_synced, resources_failed, report_json
		FROM sync_runs WHERE id = ?
	`, runID).Scan(
		&run.ID,
		&run.TriggerSource,
		&run.Status,
		&run.StartedAt,
		&completedAt,
		&run.TotalSynced,
		&run.ResourcesFailed,
		&run.ReportJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sync run %d", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// ListSyncRuns returns recent sync runs, newest first
func (s *Store) ListSyncRuns(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, trigger_source, status, started_at, completed_at, total_synced, resources_failed, report_json
		FROM sync_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		var completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID,
			&run.TriggerSource,
			&run.Status,
			&run.StartedAt,
			&completedAt,
			&run.TotalSynced,
			&run.ResourcesFailed,
			&run.ReportJSON,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
