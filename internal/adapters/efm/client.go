// Package efm implements the HTTP client for the EFM directory API.
//
// The client covers the bulk-export endpoints used for mirroring (cursor
// parameter sinceId), the company-scoped listing endpoints (page/pageSize),
// and the discount-code write path. All calls are routed through a circuit
// breaker so that a dead upstream trips fast instead of stalling every sync.
package efm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
)

// maxErrorBodySize limits how much of an error response body is read back
// for diagnostics
const maxErrorBodySize = 64 * 1024

// Client talks to the EFM API. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewClient creates an EFM API client from configuration.
func NewClient(cfg config.EFMConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("system", "efm")

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "efm-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		breaker: breaker,
		logger:  logger,
	}
}

// FetchCountries returns one batch of countries with external ID > sinceID.
// An empty slice with nil error means the listing is exhausted.
func (c *Client) FetchCountries(ctx context.Context, sinceID int) ([]Country, error) {
	return fetchBulk[Country](ctx, c, "countries", sinceID)
}

// FetchCities returns one batch of cities with external ID > sinceID.
func (c *Client) FetchCities(ctx context.Context, sinceID int) ([]City, error) {
	return fetchBulk[City](ctx, c, "cities", sinceID)
}

// FetchCompanies returns one batch of companies with external ID > sinceID.
func (c *Client) FetchCompanies(ctx context.Context, sinceID int) ([]Company, error) {
	return fetchBulk[Company](ctx, c, "companies", sinceID)
}

// FetchVenues returns one batch of venues with external ID > sinceID.
func (c *Client) FetchVenues(ctx context.Context, sinceID int) ([]Venue, error) {
	return fetchBulk[Venue](ctx, c, "venues", sinceID)
}

// FetchEvents returns one batch of events with external ID > sinceID.
func (c *Client) FetchEvents(ctx context.Context, sinceID int) ([]Event, error) {
	return fetchBulk[Event](ctx, c, "events", sinceID)
}

// FetchOwners returns one page of a company's owners.
func (c *Client) FetchOwners(ctx context.Context, companyID, page, pageSize int) ([]Owner, error) {
	return fetchByCompany[Owner](ctx, c, "owners", companyID, page, pageSize)
}

// FetchDiscountCodes returns one page of a company's discount codes.
func (c *Client) FetchDiscountCodes(ctx context.Context, companyID, page, pageSize int) ([]DiscountCode, error) {
	return fetchByCompany[DiscountCode](ctx, c, "discount-codes", companyID, page, pageSize)
}

// CreateDiscountCode pushes a new discount code to EFM and returns the
// created record (with its assigned external ID).
func (c *Client) CreateDiscountCode(ctx context.Context, code DiscountCode) (DiscountCode, error) {
	body, err := c.send(ctx, http.MethodPost, "/discount-codes", code)
	if err != nil {
		return DiscountCode{}, fmt.Errorf("create discount code: %w", err)
	}
	return decodeObject[DiscountCode](body)
}

// UpdateDiscountCode pushes changes to an existing discount code.
func (c *Client) UpdateDiscountCode(ctx context.Context, code DiscountCode) (DiscountCode, error) {
	path := fmt.Sprintf("/discount-codes/%d", code.DiscountCodeID)
	body, err := c.send(ctx, http.MethodPut, path, code)
	if err != nil {
		return DiscountCode{}, fmt.Errorf("update discount code %d: %w", code.DiscountCodeID, err)
	}
	return decodeObject[DiscountCode](body)
}

// fetchBulk fetches one batch from a bulk-export endpoint.
// GET {base}/{resource}/bulk-export?sinceId={cursor}&apikey={key}
func fetchBulk[T any](ctx context.Context, c *Client, resource string, sinceID int) ([]T, error) {
	query := url.Values{}
	query.Set("sinceId", strconv.Itoa(sinceID))

	body, err := c.get(ctx, "/"+resource+"/bulk-export", query)
	if err != nil {
		return nil, fmt.Errorf("fetch %s (sinceId=%d): %w", resource, sinceID, err)
	}
	return decodeRecords[T](body, collectionKey(resource))
}

// fetchByCompany fetches one page from a company-scoped endpoint.
// GET {base}/{resource}/by-company/{companyID}?page={n}&pageSize={n}&apikey={key}
func fetchByCompany[T any](ctx context.Context, c *Client, resource string, companyID, page, pageSize int) ([]T, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	path := fmt.Sprintf("/%s/by-company/%d", resource, companyID)
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("fetch %s for company %d (page=%d): %w", resource, companyID, page, err)
	}
	return decodeRecords[T](body, collectionKey(resource))
}

// collectionKey maps a URL resource segment to its envelope collection name.
func collectionKey(resource string) string {
	if resource == "discount-codes" {
		return "discountCodes"
	}
	return resource
}

// get performs a GET request through the circuit breaker.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("apikey", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	return c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, reqURL, nil)
	})
}

// send performs a POST/PUT request with a JSON body through the circuit breaker.
func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	query := url.Values{}
	query.Set("apikey", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, reqURL, data)
	})
}

// do executes one HTTP request and returns the response body.
func (c *Client) do(ctx context.Context, method, reqURL string, body []byte) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readBodyForError(resp.Body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

// readBodyForError reads a bounded amount of the response body for error
// reporting; large upstream error pages must not balloon memory
func readBodyForError(r io.Reader) []byte {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(data) == maxErrorBodySize {
		return append(data, []byte("... (truncated)")...)
	}
	return data
}
