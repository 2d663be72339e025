// Package trail provides the trail capture data model, admission filtering,
// and metrics aggregation.
package trail

import (
	"errors"
	"time"

	"github.com/trailcap/trailcap/pkg/geo"
)

// Domain errors.
var (
	ErrInvalidCoordinates  = errors.New("coordinates out of range")
	ErrTimestampOutOfOrder = errors.New("timestamp older than last waypoint")
	ErrTrailNotFound       = errors.New("trail not found")
)

// Type identifies the activity a trail was captured for.
type Type string

const (
	TypeHiking         Type = "hiking"
	TypeMountainBiking Type = "mountain_biking"
	TypeDirtBiking     Type = "dirt_biking"
	TypeOffroading     Type = "offroading"
)

// ActivityLabel returns the human-readable activity label used in track
// exports.
func (t Type) ActivityLabel() string {
	switch t {
	case TypeMountainBiking:
		return "mountain biking"
	case TypeDirtBiking:
		return "dirt biking"
	case TypeOffroading:
		return "offroading"
	default:
		return "hiking"
	}
}

// ParseType validates an activity type string.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeHiking, TypeMountainBiking, TypeDirtBiking, TypeOffroading:
		return Type(s), true
	}
	return "", false
}

// Difficulty is the caller-supplied difficulty rating of a trail.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
	DifficultyExpert   Difficulty = "expert"
)

// ParseDifficulty validates a difficulty string.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyModerate, DifficultyHard, DifficultyExpert:
		return Difficulty(s), true
	}
	return "", false
}

// Waypoint is one recorded sample in a trail. Once appended to a session a
// waypoint is never mutated; elevation enrichment at finalization produces
// replacement values on a copied slice.
type Waypoint struct {
	// Lat and Lon are the sample coordinates in degrees.
	Lat float64
	Lon float64

	// Elevation is the elevation in meters, nil until enriched or
	// sensor-provided.
	Elevation *float64

	// Timestamp is the sample time; non-decreasing within one session.
	Timestamp time.Time

	// Accuracy is the sensor-reported uncertainty in meters; nil for
	// manually entered points.
	Accuracy *float64

	// Manual marks hand-placed points. It affects admission (manual points
	// bypass quality gates) but no metric computation.
	Manual bool
}

// Point returns the waypoint's coordinates.
func (w *Waypoint) Point() geo.Point {
	return geo.Point{Lat: w.Lat, Lon: w.Lon}
}

// ValidateCoordinates checks the waypoint's latitude and longitude ranges.
func (w *Waypoint) ValidateCoordinates() error {
	if w.Lat < -90 || w.Lat > 90 || w.Lon < -180 || w.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Metrics are the running statistics over a session's admitted waypoints.
// HighestPoint, LowestPoint, StartPoint and EndPoint are borrowed references
// into the session's waypoint list, never copies.
type Metrics struct {
	// Distance is the cumulative great-circle path length in meters.
	Distance float64

	// ElevationGain and ElevationLoss accumulate the positive and negative
	// deltas between consecutive elevation-bearing waypoints, in meters.
	// Both are monotone under append; only a full recompute may shrink them.
	ElevationGain float64
	ElevationLoss float64

	// HighestPoint and LowestPoint reference the waypoints with max and min
	// elevation; nil while no waypoint carries elevation.
	HighestPoint *Waypoint
	LowestPoint  *Waypoint

	// StartPoint and EndPoint reference the first and last waypoints.
	StartPoint *Waypoint
	EndPoint   *Waypoint

	// Duration is the span between the first and last timestamp; nil below
	// 2 waypoints.
	Duration *time.Duration
}

// Trail is the finalized capture artifact. It is immutable after
// finalization; ownership passes to the persistence collaborator.
type Trail struct {
	ID         string
	Name       string
	LocationID string
	Type       Type
	Difficulty Difficulty

	// Waypoints is the ordered, filtered, optionally enriched sequence,
	// owned exclusively by the trail once finalized.
	Waypoints []*Waypoint

	// Metrics is the snapshot frozen at finalization.
	Metrics Metrics

	// GPX is the serialized track export.
	GPX string

	CreatedAt time.Time
	UpdatedAt time.Time
}
