package trail

import (
	"time"

	"github.com/trailcap/trailcap/pkg/geo"
)

// RejectReason explains why the admission filter dropped a candidate.
type RejectReason string

const (
	RejectNone        RejectReason = ""
	RejectAccuracy    RejectReason = "accuracy"
	RejectTooSoon     RejectReason = "too_soon"
	RejectTooClose    RejectReason = "too_close"
	RejectCoordinates RejectReason = "coordinates"
	RejectOutOfOrder  RejectReason = "out_of_order"
)

// FilterConfig holds the admission thresholds for sensor samples.
type FilterConfig struct {
	// MaxAccuracyMeters rejects samples whose reported accuracy is worse
	// than this value. Default: 20.
	MaxAccuracyMeters float64

	// MinInterval rejects samples arriving sooner than this after the last
	// admitted waypoint. Default: 1s.
	MinInterval time.Duration

	// MinDistanceMeters rejects samples closer than this to the last
	// admitted waypoint. Default: 5.
	MinDistanceMeters float64
}

// DefaultFilterConfig returns the default admission thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MaxAccuracyMeters: 20,
		MinInterval:       time.Second,
		MinDistanceMeters: 5,
	}
}

// withDefaults fills zero-valued fields with defaults.
func (c FilterConfig) withDefaults() FilterConfig {
	d := DefaultFilterConfig()
	if c.MaxAccuracyMeters <= 0 {
		c.MaxAccuracyMeters = d.MaxAccuracyMeters
	}
	if c.MinInterval <= 0 {
		c.MinInterval = d.MinInterval
	}
	if c.MinDistanceMeters <= 0 {
		c.MinDistanceMeters = d.MinDistanceMeters
	}
	return c
}

// Admit evaluates the admission predicate for a candidate against the last
// admitted waypoint. The returned reason is RejectNone when the candidate
// passes.
//
// Validity gates (coordinates, timestamp order) apply to every entry. Quality
// gates (accuracy, interval, spacing) apply only to sensor samples: manual
// entries bypass them, and the first waypoint of a session is always admitted.
func Admit(candidate, last *Waypoint, cfg FilterConfig) RejectReason {
	if candidate.ValidateCoordinates() != nil {
		return RejectCoordinates
	}
	if last != nil && candidate.Timestamp.Before(last.Timestamp) {
		return RejectOutOfOrder
	}

	if candidate.Manual || last == nil {
		return RejectNone
	}

	cfg = cfg.withDefaults()

	if candidate.Accuracy != nil && *candidate.Accuracy > cfg.MaxAccuracyMeters {
		return RejectAccuracy
	}
	if candidate.Timestamp.Sub(last.Timestamp) < cfg.MinInterval {
		return RejectTooSoon
	}
	if geo.Distance(candidate.Point(), last.Point()) < cfg.MinDistanceMeters {
		return RejectTooClose
	}

	return RejectNone
}
