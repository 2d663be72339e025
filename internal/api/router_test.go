package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/api"
	"github.com/trailcap/trailcap/internal/api/models"
	"github.com/trailcap/trailcap/internal/session"
	"github.com/trailcap/trailcap/internal/trail"
)

func newTestRouter(t *testing.T) (*chi.Mux, *trail.InMemoryRepository) {
	t.Helper()

	feed := session.NewFeed()
	sessions := session.NewManager(session.ManagerConfig{
		Source: feed,
		Logger: zerolog.Nop(),
	})
	repo := trail.NewInMemoryRepository()

	router := api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "test",
		Logger:    zerolog.Nop(),
		Sessions:  sessions,
		Trails:    repo,
	})
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) models.SessionStatus {
	t.Helper()
	var status models.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return status
}

func sampleBody(lat, lon float64, ts time.Time) map[string]interface{} {
	return map[string]interface{}{
		"lat":       lat,
		"lon":       lon,
		"timestamp": ts.Format(time.RFC3339),
	}
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"OK"`)
}

func TestCreateSession_InvalidMode(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "teleport",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "validation-error")
}

func TestCreateSession_InvalidType(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "manual",
		"type": "swimming",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_enum")
}

func TestSessionLifecycle_Manual(t *testing.T) {
	router, repo := newTestRouter(t)
	base := time.Date(2026, 6, 14, 9, 0, 0, 0, time.UTC)

	// Open a manual session
	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode":       "manual",
		"name":       "Ridge Loop",
		"locationId": "loc_42",
		"type":       "mountain_biking",
		"difficulty": "moderate",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	status := decodeStatus(t, rec)
	assert.NotEmpty(t, status.ID)
	assert.Equal(t, "recording", status.State)
	assert.Equal(t, "manual", status.Mode)
	assert.Equal(t, fmt.Sprintf("/v1/sessions/%s", status.ID), rec.Header().Get("Location"))

	sessionPath := "/v1/sessions/" + status.ID

	// Drop three points
	points := []struct {
		lat, lon float64
	}{
		{47.6062, -122.3321},
		{47.6072, -122.3321},
		{47.6082, -122.3321},
	}
	for i, p := range points {
		rec = doJSON(t, router, http.MethodPost, sessionPath+"/samples",
			sampleBody(p.lat, p.lon, base.Add(time.Duration(i)*time.Minute)))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	status = decodeStatus(t, doJSON(t, router, http.MethodGet, sessionPath, nil))
	assert.Equal(t, 3, status.WaypointCount)
	assert.Greater(t, status.Metrics.DistanceM, 0.0)

	// Remove the middle waypoint
	rec = doJSON(t, router, http.MethodDelete, sessionPath+"/waypoints/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeStatus(t, rec).WaypointCount)

	// Finalize
	rec = doJSON(t, router, http.MethodPost, sessionPath+"/finalize", map[string]interface{}{
		"enrich": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result models.FinalizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result.Trail.ID, "trl_")
	assert.Equal(t, "Ridge Loop", result.Trail.Name)
	assert.Equal(t, "mountain_biking", result.Trail.Type)
	assert.Equal(t, 2, result.Trail.WaypointCount)
	assert.Equal(t, "/v1/trails/"+result.Trail.ID, rec.Header().Get("Location"))

	// Session is gone, trail is persisted
	rec = doJSON(t, router, http.MethodGet, sessionPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored, err := repo.Get(t.Context(), result.Trail.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ridge Loop", stored.Name)

	// Trail endpoints serve it
	rec = doJSON(t, router, http.MethodGet, "/v1/trails/"+result.Trail.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/trails/"+result.Trail.ID+"/gpx", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gpx+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<gpx")

	rec = doJSON(t, router, http.MethodGet, "/v1/trails", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var page models.PagedTrails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)

	rec = doJSON(t, router, http.MethodDelete, "/v1/trails/"+result.Trail.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/trails/"+result.Trail.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestSample_InvalidCoordinates(t *testing.T) {
	router, _ := newTestRouter(t)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "manual",
	}))

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+status.ID+"/samples",
		sampleBody(95, 0, time.Now()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out_of_range")
}

func TestIngestSample_MalformedTimestamp(t *testing.T) {
	router, _ := newTestRouter(t)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "manual",
	}))

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+status.ID+"/samples",
		map[string]interface{}{"lat": 47.60, "lon": -122.33, "timestamp": 5})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation-error")
}

func TestIngestSample_OutOfOrderManual(t *testing.T) {
	router, _ := newTestRouter(t)
	base := time.Date(2026, 6, 14, 9, 0, 0, 0, time.UTC)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "manual",
	}))
	path := "/v1/sessions/" + status.ID + "/samples"

	rec := doJSON(t, router, http.MethodPost, path, sampleBody(47.60, -122.33, base))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, sampleBody(47.61, -122.33, base.Add(-time.Minute)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "older than last waypoint")
}

func TestPauseResume(t *testing.T) {
	router, _ := newTestRouter(t)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "gps",
	}))
	path := "/v1/sessions/" + status.ID

	rec := doJSON(t, router, http.MethodPost, path+"/pause", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paused", decodeStatus(t, rec).State)

	// Pausing again conflicts
	rec = doJSON(t, router, http.MethodPost, path+"/pause", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path+"/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "recording", decodeStatus(t, rec).State)

	// Resuming while recording conflicts
	rec = doJSON(t, router, http.MethodPost, path+"/resume", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRemoveWaypoint_GPSMode(t *testing.T) {
	router, _ := newTestRouter(t)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "gps",
	}))

	rec := doJSON(t, router, http.MethodDelete, "/v1/sessions/"+status.ID+"/waypoints/0", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "manual sessions")
}

func TestFinalize_InsufficientWaypoints(t *testing.T) {
	router, _ := newTestRouter(t)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "manual",
	}))
	path := "/v1/sessions/" + status.ID

	rec := doJSON(t, router, http.MethodPost, path+"/finalize", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 2 waypoints")

	// The session survives a failed finalize
	rec = doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAbandonSession(t *testing.T) {
	router, _ := newTestRouter(t)

	status := decodeStatus(t, doJSON(t, router, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"mode": "manual",
	}))
	path := "/v1/sessions/" + status.ID

	rec := doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/sessions/ses_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestListTrails_InvalidLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/trails?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
