// Package openelevation provides an Open-Elevation API client.
package openelevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/provider/resilience"
	"github.com/trailcap/trailcap/pkg/geo"
)

const (
	// ProviderName identifies this elevation provider.
	ProviderName = "open-elevation"

	// DefaultBaseURL is the Open-Elevation API base URL.
	DefaultBaseURL = "https://api.open-elevation.com"

	// DefaultBatchLimit is the maximum locations per lookup request.
	DefaultBatchLimit = 500
)

// ClientConfig holds configuration for the Open-Elevation client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public API).
	BaseURL string

	// BatchLimit overrides the per-request location cap (optional).
	BatchLimit int

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Elevation API client.
type Client struct {
	baseURL    string
	batchLimit int
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Open-Elevation client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("open-elevation"))
	}

	return &Client{
		baseURL:    baseURL,
		batchLimit: batchLimit,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// BatchLimit returns the maximum locations per lookup request.
func (c *Client) BatchLimit() int {
	return c.batchLimit
}

// Lookup fetches elevations for the given points, aligned by input order.
func (c *Client) Lookup(ctx context.Context, points []geo.Point) ([]*float64, error) {
	if len(points) == 0 {
		return nil, nil
	}

	reqBody := lookupRequest{
		Locations: make([]location, 0, len(points)),
	}
	for _, p := range points {
		reqBody.Locations = append(reqBody.Locations, location{
			Latitude:  p.Lat,
			Longitude: p.Lon,
		})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/api/v1/lookup"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var lookupResp lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookupResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(lookupResp.Results) != len(points) {
		return nil, fmt.Errorf("expected %d results, got %d", len(points), len(lookupResp.Results))
	}

	elevations := make([]*float64, len(points))
	for i := range lookupResp.Results {
		v := lookupResp.Results[i].Elevation
		elevations[i] = &v
	}

	return elevations, nil
}

// Open-Elevation API request/response structures.

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}
