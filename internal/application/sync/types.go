package sync

import (
	"context"
	"log/slog"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// Resource names as they appear in run reports and API routes.
const (
	ResourceCountries     = "countries"
	ResourceCities        = "cities"
	ResourceCompanies     = "companies"
	ResourceVenues        = "venues"
	ResourceEvents        = "events"
	ResourceOwners        = "company_owners"
	ResourceDiscountCodes = "discount_codes"
)

// Client is the slice of the EFM API the sync engine needs.
type Client interface {
	FetchCountries(ctx context.Context, sinceID int) ([]efm.Country, error)
	FetchCities(ctx context.Context, sinceID int) ([]efm.City, error)
	FetchCompanies(ctx context.Context, sinceID int) ([]efm.Company, error)
	FetchVenues(ctx context.Context, sinceID int) ([]efm.Venue, error)
	FetchEvents(ctx context.Context, sinceID int) ([]efm.Event, error)
	FetchOwners(ctx context.Context, companyID, page, pageSize int) ([]efm.Owner, error)
	FetchDiscountCodes(ctx context.Context, companyID, page, pageSize int) ([]efm.DiscountCode, error)
}

// Summary holds the outcome of syncing one resource
type Summary struct {
	Resource    string `json:"resource"`
	Success     bool   `json:"success"`
	TotalSynced int    `json:"total_synced"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Message     string `json:"message,omitempty"`
}

// Syncer pulls one resource at a time from EFM into the local mirror
type Syncer struct {
	client         Client
	repo           storage.MirrorRepository
	logger         *slog.Logger
	pageSize       int
	maxPageFetches int
}

// NewSyncer creates a new resource syncer
func NewSyncer(client Client, repo storage.MirrorRepository, cfg config.EFMConfig, logger *slog.Logger) *Syncer {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxPageFetches := cfg.MaxPageFetches
	if maxPageFetches <= 0 {
		maxPageFetches = 10000
	}
	return &Syncer{
		client:         client,
		repo:           repo,
		logger:         logger,
		pageSize:       pageSize,
		maxPageFetches: maxPageFetches,
	}
}
