package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/api"
	"github.com/eventflow/efm-sync-backend/internal/api/dto"
	"github.com/eventflow/efm-sync-backend/internal/application/service"
	appsync "github.com/eventflow/efm-sync-backend/internal/application/sync"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// snapshotClient serves a tiny fixed EFM dataset.
type snapshotClient struct{}

func (snapshotClient) FetchCountries(_ context.Context, sinceID int) ([]efm.Country, error) {
	if sinceID >= 10 {
		return nil, nil
	}
	return []efm.Country{{CountryID: 10, Name: "Germany", Code: "DE"}}, nil
}

func (snapshotClient) FetchCities(_ context.Context, sinceID int) ([]efm.City, error) {
	if sinceID >= 20 {
		return nil, nil
	}
	return []efm.City{{CityID: 20, Name: "Berlin", CountryID: 10}}, nil
}

func (snapshotClient) FetchCompanies(_ context.Context, sinceID int) ([]efm.Company, error) {
	if sinceID >= 77 {
		return nil, nil
	}
	return []efm.Company{{CompanyID: 77, Name: "EventCo"}}, nil
}

func (snapshotClient) FetchVenues(context.Context, int) ([]efm.Venue, error)  { return nil, nil }
func (snapshotClient) FetchEvents(context.Context, int) ([]efm.Event, error)  { return nil, nil }
func (snapshotClient) FetchOwners(_ context.Context, companyID, page, _ int) ([]efm.Owner, error) {
	if page > 1 {
		return nil, nil
	}
	return []efm.Owner{{OwnerID: 501, CompanyID: companyID, FirstName: "Ada"}}, nil
}
func (snapshotClient) FetchDiscountCodes(context.Context, int, int, int) ([]efm.DiscountCode, error) {
	return nil, nil
}

// fakeEFMWriter implements the discount write API.
type fakeEFMWriter struct{}

func (fakeEFMWriter) CreateDiscountCode(_ context.Context, code efm.DiscountCode) (efm.DiscountCode, error) {
	code.DiscountCodeID = 601
	return code, nil
}

func (fakeEFMWriter) UpdateDiscountCode(_ context.Context, code efm.DiscountCode) (efm.DiscountCode, error) {
	return code, nil
}

func newTestServer(t *testing.T) (*api.Server, *service.SyncService, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	syncer := appsync.NewSyncer(snapshotClient{}, repo, config.EFMConfig{PageSize: 10, MaxPageFetches: 10}, logger)
	orchestrator := appsync.NewOrchestrator(syncer, repo, logger)
	svc := service.NewSyncService(orchestrator, logger)
	server := api.NewServer(api.DefaultConfig(), repo, svc, orchestrator, fakeEFMWriter{}, logger)
	return server, svc, repo
}

func doRequest(server *api.Server, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doRequest(server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_TriggerAndPollSync(t *testing.T) {
	server, svc, repo := newTestServer(t)

	rec := doRequest(server, http.MethodPost, "/api/efm-sync/trigger", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var trigger dto.TriggerSyncResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&trigger))
	require.NotEmpty(t, trigger.JobID)

	require.Eventually(t, func() bool {
		job, err := svc.GetSyncJob(trigger.JobID)
		return err == nil && job.Status == service.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	rec = doRequest(server, http.MethodGet, "/api/sync/jobs/"+trigger.JobID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var job dto.SyncJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, "completed", job.Status)
	require.NotNil(t, job.Report)
	// Country, company, and the company's owner always sync; the city may
	// race its country within one pass and be skipped until the next run.
	assert.Equal(t, 4, job.Report.TotalSynced+job.Report.TotalSkipped)
	assert.GreaterOrEqual(t, job.Report.TotalSynced, 3)

	assert.Equal(t, 1, repo.CountryCount())
	assert.Equal(t, 1, repo.OwnerCount())

	// The run is also in the persisted history.
	rec = doRequest(server, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs dto.SyncRunsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	assert.Equal(t, 1, runs.Count)
	assert.Equal(t, "completed", runs.Runs[0].Status)
}

func TestServer_SingleResourceRoutes(t *testing.T) {
	server, _, repo := newTestServer(t)

	rec := doRequest(server, http.MethodGet, "/api/countries/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary dto.ResourceSummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, "countries", summary.Resource)
	assert.Equal(t, 1, summary.TotalSynced)
	assert.Equal(t, 1, repo.CountryCount())

	// Company-scoped resources have no standalone sync route.
	rec = doRequest(server, http.MethodGet, "/api/company_owners/sync", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DiscountCodeRoutes(t *testing.T) {
	server, _, repo := newTestServer(t)
	require.NoError(t, repo.UpsertCompany(efm.Company{CompanyID: 77}))

	rec := doRequest(server, http.MethodPost, "/api/discount-codes", `{"company_id":77,"code":"EARLYBIRD"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.DiscountCodeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, 601, created.DiscountCodeID)

	rec = doRequest(server, http.MethodPut, "/api/discount-codes/601", `{"company_id":77,"code":"LATEBIRD"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	row, err := repo.GetDiscountCodeByExternalID(601)
	require.NoError(t, err)
	assert.Equal(t, "LATEBIRD", row.Code)
}

func TestServer_WithoutSyncService(t *testing.T) {
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	server := api.NewServer(api.DefaultConfig(), repo, nil, nil, nil, logger)

	assert.Equal(t, http.StatusOK, doRequest(server, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(server, http.MethodGet, "/api/runs", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(server, http.MethodPost, "/api/efm-sync/trigger", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(server, http.MethodPost, "/api/discount-codes", "").Code)
}

func TestServer_CORSHeaders(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
