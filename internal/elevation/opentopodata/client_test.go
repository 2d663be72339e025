package opentopodata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/elevation/opentopodata"
	"github.com/trailcap/trailcap/internal/provider/resilience"
	"github.com/trailcap/trailcap/pkg/geo"
)

func TestClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/srtm90m", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("locations"), "|")

		response := map[string]interface{}{
			"status": "OK",
			"results": []map[string]interface{}{
				{"elevation": 12.0, "location": map[string]float64{"lat": 52.0, "lng": 4.0}},
				{"elevation": nil, "location": map[string]float64{"lat": 52.001, "lng": 4.0}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response) //nolint:errcheck // test server
	}))
	defer server.Close()

	client := opentopodata.NewClient(opentopodata.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	values, err := client.Lookup(context.Background(), []geo.Point{
		{Lat: 52.0, Lon: 4.0},
		{Lat: 52.001, Lon: 4.0},
	})
	require.NoError(t, err)
	require.Len(t, values, 2)

	require.NotNil(t, values[0])
	assert.InDelta(t, 12.0, *values[0], 1e-9)
	assert.Nil(t, values[1], "no-coverage points come back nil")
}

func TestClient_LookupProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"INVALID_REQUEST","error":"too many locations"}`)) //nolint:errcheck // test server
	}))
	defer server.Close()

	client := opentopodata.NewClient(opentopodata.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	_, err := client.Lookup(context.Background(), []geo.Point{{Lat: 52.0, Lon: 4.0}})
	assert.ErrorContains(t, err, "too many locations")
}

func TestClient_Defaults(t *testing.T) {
	client := opentopodata.NewClient(opentopodata.ClientConfig{})
	assert.Equal(t, opentopodata.ProviderName, client.Name())
	assert.Equal(t, opentopodata.DefaultBatchLimit, client.BatchLimit())
}
