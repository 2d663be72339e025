package models

// SessionCreateRequest is the request body for opening a capture session.
type SessionCreateRequest struct {
	// Mode selects the capture mode: "gps" or "manual".
	Mode string `json:"mode" validate:"required,oneof=gps manual"`

	Name       string `json:"name,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	Type       string `json:"type,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`

	// Filter overrides the default admission thresholds. Omitted fields
	// keep their defaults.
	Filter *FilterOverrides `json:"filter,omitempty"`

	// Initial is an optional first position sample, admitted immediately.
	Initial *SampleRequest `json:"initial,omitempty"`
}

// FilterOverrides carries optional admission filter thresholds.
type FilterOverrides struct {
	MaxAccuracyMeters float64 `json:"maxAccuracyMeters,omitempty" validate:"omitempty,gt=0"`
	MinIntervalMs     int64   `json:"minIntervalMs,omitempty" validate:"omitempty,gt=0"`
	MinDistanceMeters float64 `json:"minDistanceMeters,omitempty" validate:"omitempty,gt=0"`
}

// SampleRequest is a single position sample submitted for admission.
type SampleRequest struct {
	Lat       float64    `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon       float64    `json:"lon" validate:"required,gte=-180,lte=180"`
	Elevation *float64   `json:"elevation,omitempty"`
	Accuracy  *float64   `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// SessionStatus is the point-in-time view of a capture session.
type SessionStatus struct {
	ID             string       `json:"id"`
	State          string       `json:"state"`
	Mode           string       `json:"mode"`
	WaypointCount  int          `json:"waypointCount"`
	RejectedCount  int          `json:"rejectedCount"`
	ElapsedSeconds float64      `json:"elapsedSeconds"`
	Metrics        TrailMetrics `json:"metrics"`
}

// FinalizeRequest is the request body for finalizing a session. Identity
// fields override what the session was opened with when non-empty.
type FinalizeRequest struct {
	Enrich     bool   `json:"enrich"`
	Name       string `json:"name,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	Type       string `json:"type,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// EnrichmentReport describes the outcome of best-effort elevation
// enrichment. A partial or failed pass never fails finalization.
type EnrichmentReport struct {
	Provider  string `json:"provider,omitempty"`
	Requested int    `json:"requested"`
	Resolved  int    `json:"resolved"`
	Failed    int    `json:"failed"`
	Partial   bool   `json:"partial"`
	Error     string `json:"error,omitempty"`
}

// FinalizeResponse is the response body for a successful finalization.
type FinalizeResponse struct {
	Trail      Trail             `json:"trail"`
	Enrichment *EnrichmentReport `json:"enrichment,omitempty"`
}
