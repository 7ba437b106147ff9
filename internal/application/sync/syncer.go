package sync

import (
	"context"
	"fmt"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
)

// SyncCountries mirrors all countries above the current cursor
func (s *Syncer) SyncCountries(ctx context.Context) Summary {
	return syncByCursor(ctx, ResourceCountries,
		s.client.FetchCountries,
		func(c efm.Country) int { return c.CountryID },
		s.repo.UpsertCountry,
		s.maxPageFetches, s.logger)
}

// SyncCities mirrors all cities above the current cursor
func (s *Syncer) SyncCities(ctx context.Context) Summary {
	return syncByCursor(ctx, ResourceCities,
		s.client.FetchCities,
		func(c efm.City) int { return c.CityID },
		s.repo.UpsertCity,
		s.maxPageFetches, s.logger)
}

// SyncCompanies mirrors all companies and returns the external IDs seen this
// pass, which the orchestrator fans out over for owners and discount codes.
func (s *Syncer) SyncCompanies(ctx context.Context) (Summary, []int) {
	var companyIDs []int
	summary := syncByCursor(ctx, ResourceCompanies,
		s.client.FetchCompanies,
		func(c efm.Company) int { return c.CompanyID },
		func(c efm.Company) error {
			if err := s.repo.UpsertCompany(c); err != nil {
				return err
			}
			companyIDs = append(companyIDs, c.CompanyID)
			return nil
		},
		s.maxPageFetches, s.logger)
	return summary, companyIDs
}

// SyncVenues mirrors all venues above the current cursor
func (s *Syncer) SyncVenues(ctx context.Context) Summary {
	return syncByCursor(ctx, ResourceVenues,
		s.client.FetchVenues,
		func(v efm.Venue) int { return v.VenueID },
		s.repo.UpsertVenue,
		s.maxPageFetches, s.logger)
}

// SyncEvents mirrors all events above the current cursor
func (s *Syncer) SyncEvents(ctx context.Context) Summary {
	return syncByCursor(ctx, ResourceEvents,
		s.client.FetchEvents,
		func(e efm.Event) int { return e.EventID },
		s.repo.UpsertEvent,
		s.maxPageFetches, s.logger)
}

// SyncOwners mirrors the owners of a single company
func (s *Syncer) SyncOwners(ctx context.Context, companyID int) Summary {
	return syncByPage(ctx, ResourceOwners, companyID,
		func(ctx context.Context, page, pageSize int) ([]efm.Owner, error) {
			return s.client.FetchOwners(ctx, companyID, page, pageSize)
		},
		func(o efm.Owner) int { return o.OwnerID },
		s.repo.UpsertOwner,
		s.pageSize, s.maxPageFetches, s.logger)
}

// SyncDiscountCodes mirrors the discount codes of a single company
func (s *Syncer) SyncDiscountCodes(ctx context.Context, companyID int) Summary {
	return syncByPage(ctx, ResourceDiscountCodes, companyID,
		func(ctx context.Context, page, pageSize int) ([]efm.DiscountCode, error) {
			return s.client.FetchDiscountCodes(ctx, companyID, page, pageSize)
		},
		func(d efm.DiscountCode) int { return d.DiscountCodeID },
		s.repo.UpsertDiscountCode,
		s.pageSize, s.maxPageFetches, s.logger)
}

// SyncResource syncs a single top-level resource by name. Company-scoped
// resources (owners, discount codes) cannot be synced standalone because
// they require the company fan-out.
func (s *Syncer) SyncResource(ctx context.Context, resource string) (Summary, error) {
	switch resource {
	case ResourceCountries:
		return s.SyncCountries(ctx), nil
	case ResourceCities:
		return s.SyncCities(ctx), nil
	case ResourceCompanies:
		summary, _ := s.SyncCompanies(ctx)
		return summary, nil
	case ResourceVenues:
		return s.SyncVenues(ctx), nil
	case ResourceEvents:
		return s.SyncEvents(ctx), nil
	default:
		return Summary{}, fmt.Errorf("unknown resource %q", resource)
	}
}

// TopLevelResources lists the resources SyncResource accepts, in dependency
// order.
func TopLevelResources() []string {
	return []string{ResourceCountries, ResourceCities, ResourceCompanies, ResourceVenues, ResourceEvents}
}
