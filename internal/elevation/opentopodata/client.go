// Package opentopodata provides an OpenTopoData API client.
package opentopodata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/provider/resilience"
	"github.com/trailcap/trailcap/pkg/geo"
)

const (
	// ProviderName identifies this elevation provider.
	ProviderName = "opentopodata"

	// DefaultBaseURL is the OpenTopoData API base URL.
	DefaultBaseURL = "https://api.opentopodata.org"

	// DefaultDataset is the elevation dataset queried by default.
	DefaultDataset = "srtm90m"

	// DefaultBatchLimit is the maximum locations per lookup request.
	DefaultBatchLimit = 300
)

// ClientConfig holds configuration for the OpenTopoData client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public API).
	BaseURL string

	// Dataset selects the elevation dataset (optional).
	Dataset string

	// BatchLimit overrides the per-request location cap (optional).
	BatchLimit int

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenTopoData API client.
type Client struct {
	baseURL    string
	dataset    string
	batchLimit int
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenTopoData client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	dataset := cfg.Dataset
	if dataset == "" {
		dataset = DefaultDataset
	}

	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("opentopodata"))
	}

	return &Client{
		baseURL:    baseURL,
		dataset:    dataset,
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
// Points the dataset has no coverage for come back nil.
func (c *Client) Lookup(ctx context.Context, points []geo.Point) ([]*float64, error) {
	if len(points) == 0 {
		return nil, nil
	}

	locations := make([]string, 0, len(points))
	for _, p := range points {
		locations = append(locations, fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon))
	}

	url := fmt.Sprintf("%s/v1/%s?locations=%s",
		c.baseURL, c.dataset, strings.Join(locations, "|"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
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

	if lookupResp.Status != "OK" {
		return nil, fmt.Errorf("provider status %q: %s", lookupResp.Status, lookupResp.Error)
	}

	if len(lookupResp.Results) != len(points) {
		return nil, fmt.Errorf("expected %d results, got %d", len(points), len(lookupResp.Results))
	}

	elevations := make([]*float64, len(points))
	for i := range lookupResp.Results {
		elevations[i] = lookupResp.Results[i].Elevation
	}

	return elevations, nil
}

// OpenTopoData API response structures.

type lookupResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Results []struct {
		// Elevation is null for points outside dataset coverage.
		Elevation *float64 `json:"elevation"`
		Location  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"results"`
}
