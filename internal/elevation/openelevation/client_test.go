package openelevation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/elevation/openelevation"
	"github.com/trailcap/trailcap/internal/provider/resilience"
	"github.com/trailcap/trailcap/pkg/geo"
)

func TestClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/lookup", r.URL.Path)

		var req struct {
			Locations []struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"locations"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Locations, 2)
		assert.InDelta(t, 52.0, req.Locations[0].Latitude, 1e-9)

		response := map[string]interface{}{
			"results": []map[string]interface{}{
				{"latitude": 52.0, "longitude": 4.0, "elevation": 12.0},
				{"latitude": 52.001, "longitude": 4.0, "elevation": 15.5},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response) //nolint:errcheck // test server
	}))
	defer server.Close()

	client := openelevation.NewClient(openelevation.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	values, err := client.Lookup(context.Background(), []geo.Point{
		{Lat: 52.0, Lon: 4.0},
		{Lat: 52.001, Lon: 4.0},
	})
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.InDelta(t, 12.0, *values[0], 1e-9)
	assert.InDelta(t, 15.5, *values[1], 1e-9)
}

func TestClient_LookupResultCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`)) //nolint:errcheck // test server
	}))
	defer server.Close()

	client := openelevation.NewClient(openelevation.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	_, err := client.Lookup(context.Background(), []geo.Point{{Lat: 52.0, Lon: 4.0}})
	assert.Error(t, err)
}

func TestClient_LookupEmptyInput(t *testing.T) {
	client := openelevation.NewClient(openelevation.ClientConfig{})

	values, err := client.Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestClient_Defaults(t *testing.T) {
	client := openelevation.NewClient(openelevation.ClientConfig{})
	assert.Equal(t, openelevation.ProviderName, client.Name())
	assert.Equal(t, openelevation.DefaultBatchLimit, client.BatchLimit())
}
