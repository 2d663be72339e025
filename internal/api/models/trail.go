package models

// TrailWaypoint is a single recorded track point.
type TrailWaypoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Elevation *float64  `json:"elevation,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Manual    bool      `json:"manual,omitempty"`
}

// TrailMetrics is the aggregate metrics snapshot for a trail or an
// in-progress session.
type TrailMetrics struct {
	DistanceM       float64        `json:"distanceM"`
	ElevationGainM  float64        `json:"elevationGainM"`
	ElevationLossM  float64        `json:"elevationLossM"`
	HighestPoint    *TrailWaypoint `json:"highestPoint,omitempty"`
	LowestPoint     *TrailWaypoint `json:"lowestPoint,omitempty"`
	StartPoint      *TrailWaypoint `json:"startPoint,omitempty"`
	EndPoint        *TrailWaypoint `json:"endPoint,omitempty"`
	DurationSeconds *float64       `json:"durationSeconds,omitempty"`
}

// Trail is a finalized trail. The waypoint sequence travels in the GPX
// export rather than in the JSON body.
type Trail struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	LocationID    string       `json:"locationId,omitempty"`
	Type          string       `json:"type"`
	Difficulty    string       `json:"difficulty,omitempty"`
	WaypointCount int          `json:"waypointCount"`
	Metrics       TrailMetrics `json:"metrics"`
	CreatedAt     Timestamp    `json:"createdAt"`
	UpdatedAt     Timestamp    `json:"updatedAt"`
}

// PagedTrails is a page of trails.
type PagedTrails struct {
	Items []Trail           `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
