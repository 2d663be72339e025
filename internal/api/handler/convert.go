package handler

import (
	"time"

	"github.com/trailcap/trailcap/internal/api/models"
	"github.com/trailcap/trailcap/internal/elevation"
	"github.com/trailcap/trailcap/internal/session"
	"github.com/trailcap/trailcap/internal/trail"
)

func waypointModel(w *trail.Waypoint) *models.TrailWaypoint {
	if w == nil {
		return nil
	}
	return &models.TrailWaypoint{
		Lat:       w.Lat,
		Lon:       w.Lon,
		Elevation: w.Elevation,
		Timestamp: models.Timestamp(w.Timestamp),
		Accuracy:  w.Accuracy,
		Manual:    w.Manual,
	}
}

func metricsModel(m trail.Metrics) models.TrailMetrics {
	out := models.TrailMetrics{
		DistanceM:      m.Distance,
		ElevationGainM: m.ElevationGain,
		ElevationLossM: m.ElevationLoss,
		HighestPoint:   waypointModel(m.HighestPoint),
		LowestPoint:    waypointModel(m.LowestPoint),
		StartPoint:     waypointModel(m.StartPoint),
		EndPoint:       waypointModel(m.EndPoint),
	}
	if m.Duration != nil {
		seconds := m.Duration.Seconds()
		out.DurationSeconds = &seconds
	}
	return out
}

func statusModel(snap session.Snapshot) models.SessionStatus {
	return models.SessionStatus{
		ID:             snap.ID,
		State:          string(snap.State),
		Mode:           string(snap.Mode),
		WaypointCount:  snap.WaypointCount,
		RejectedCount:  snap.RejectedCount,
		ElapsedSeconds: snap.Elapsed.Seconds(),
		Metrics:        metricsModel(snap.Metrics),
	}
}

func trailModel(t *trail.Trail) models.Trail {
	return models.Trail{
		ID:            t.ID,
		Name:          t.Name,
		LocationID:    t.LocationID,
		Type:          string(t.Type),
		Difficulty:    string(t.Difficulty),
		WaypointCount: len(t.Waypoints),
		Metrics:       metricsModel(t.Metrics),
		CreatedAt:     models.Timestamp(t.CreatedAt),
		UpdatedAt:     models.Timestamp(t.UpdatedAt),
	}
}

func enrichmentModel(r elevation.Report) *models.EnrichmentReport {
	if r.Requested == 0 && r.Err == nil {
		return nil
	}
	out := &models.EnrichmentReport{
		Provider:  r.Provider,
		Requested: r.Requested,
		Resolved:  r.Resolved,
		Failed:    r.Failed,
		Partial:   r.Partial(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func sampleFromRequest(req models.SampleRequest) session.Sample {
	s := session.Sample{
		Lat:       req.Lat,
		Lon:       req.Lon,
		Elevation: req.Elevation,
		Accuracy:  req.Accuracy,
		Timestamp: time.Now(),
	}
	if req.Timestamp != nil {
		s.Timestamp = req.Timestamp.Time()
	}
	return s
}
