package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// syncByCursor drains a bulk-export resource using a max-ID cursor: each
// request asks for records with IDs above the cursor, the cursor advances to
// the highest ID seen, and an empty page means the resource is exhausted.
//
// Records whose parent has not been mirrored yet are skipped and counted;
// the next full pass picks them up. Any other per-record upsert error is
// counted as failed and the loop moves on, so one bad record never blocks
// the rest of the resource. A fetch error stops the loop and surfaces a
// partial summary with Success=false, so a transient API failure is never
// mistaken for "nothing left to sync".
func syncByCursor[T any](
	ctx context.Context,
	resource string,
	fetch func(ctx context.Context, sinceID int) ([]T, error),
	idOf func(T) int,
	upsert func(T) error,
	maxPageFetches int,
	logger *slog.Logger,
) Summary {
	summary := Summary{Resource: resource}
	cursor := 0
	var lastUpsertErr string

	for fetches := 0; ; fetches++ {
		if fetches >= maxPageFetches {
			summary.Message = fmt.Sprintf("aborted after %d page fetches without exhaustion", fetches)
			logger.Error("Sync aborted by page fetch limit", "resource", resource, "fetches", fetches)
			return summary
		}

		records, err := fetch(ctx, cursor)
		if err != nil {
			summary.Message = fmt.Sprintf("fetch with cursor %d failed: %v", cursor, err)
			logger.Error("Fetch failed", "resource", resource, "cursor", cursor, "error", err)
			return summary
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			if id := idOf(record); id > cursor {
				cursor = id
			}

			if err := upsert(record); err != nil {
				if errors.Is(err, storage.ErrMissingParent) {
					summary.Skipped++
					logger.Warn("Skipping record with unsynced parent",
						"resource", resource,
						"record_id", idOf(record),
						"reason", err,
					)
					continue
				}
				summary.Failed++
				lastUpsertErr = fmt.Sprintf("record %d: %v", idOf(record), err)
				logger.Error("Upsert failed, continuing with remaining records",
					"resource", resource, "record_id", idOf(record), "error", err)
				continue
			}
			summary.TotalSynced++
		}

		logger.Debug("Synced page",
			"resource", resource,
			"page_records", len(records),
			"cursor", cursor,
		)
	}

	if summary.Failed > 0 {
		summary.Message = fmt.Sprintf("%d record upserts failed; last: %s", summary.Failed, lastUpsertErr)
		return summary
	}
	summary.Success = true
	return summary
}

// syncByPage drains a company-scoped resource with page/pageSize pagination
// starting at page 1. An empty page means exhaustion; errors behave as in
// syncByCursor.
func syncByPage[T any](
	ctx context.Context,
	resource string,
	companyID int,
	fetch func(ctx context.Context, page, pageSize int) ([]T, error),
	idOf func(T) int,
	upsert func(T) error,
	pageSize int,
	maxPageFetches int,
	logger *slog.Logger,
) Summary {
	summary := Summary{Resource: resource}
	var lastUpsertErr string

	for page := 1; ; page++ {
		if page > maxPageFetches {
			summary.Message = fmt.Sprintf("aborted after %d page fetches without exhaustion", page-1)
			logger.Error("Sync aborted by page fetch limit", "resource", resource, "company_id", companyID, "fetches", page-1)
			return summary
		}

		records, err := fetch(ctx, page, pageSize)
		if err != nil {
			summary.Message = fmt.Sprintf("fetch page %d for company %d failed: %v", page, companyID, err)
			logger.Error("Fetch failed", "resource", resource, "company_id", companyID, "page", page, "error", err)
			return summary
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			if err := upsert(record); err != nil {
				if errors.Is(err, storage.ErrMissingParent) {
					summary.Skipped++
					logger.Warn("Skipping record with unsynced parent",
						"resource", resource,
						"company_id", companyID,
						"record_id", idOf(record),
						"reason", err,
					)
					continue
				}
				summary.Failed++
				lastUpsertErr = fmt.Sprintf("record %d: %v", idOf(record), err)
				logger.Error("Upsert failed, continuing with remaining records",
					"resource", resource, "company_id", companyID, "record_id", idOf(record), "error", err)
				continue
			}
			summary.TotalSynced++
		}
	}

	if summary.Failed > 0 {
		summary.Message = fmt.Sprintf("%d record upserts failed; last: %s", summary.Failed, lastUpsertErr)
		return summary
	}
	summary.Success = true
	return summary
}
