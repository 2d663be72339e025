package trail

import (
	"github.com/trailcap/trailcap/pkg/geo"
)

// UpdateMetrics returns the metrics extended by one appended waypoint in
// O(1). prev is the previously last waypoint, nil when next is the first.
//
// Elevation gain and loss only accumulate when both prev and next carry
// elevation; a gap in elevation data breaks the delta chain rather than
// treating missing values as zero.
func UpdateMetrics(m Metrics, prev, next *Waypoint) Metrics {
	if m.StartPoint == nil {
		m.StartPoint = next
	}
	m.EndPoint = next

	if prev != nil {
		m.Distance += geo.Distance(prev.Point(), next.Point())

		if prev.Elevation != nil && next.Elevation != nil {
			delta := *next.Elevation - *prev.Elevation
			if delta > 0 {
				m.ElevationGain += delta
			} else {
				m.ElevationLoss += -delta
			}
		}

		d := next.Timestamp.Sub(m.StartPoint.Timestamp)
		m.Duration = &d
	}

	if next.Elevation != nil {
		if m.HighestPoint == nil || *next.Elevation > *m.HighestPoint.Elevation {
			m.HighestPoint = next
		}
		if m.LowestPoint == nil || *next.Elevation < *m.LowestPoint.Elevation {
			m.LowestPoint = next
		}
	}

	return m
}

// RecomputeMetrics rebuilds metrics from scratch over an ordered waypoint
// list in O(n). Required after a waypoint removal: incremental subtraction of
// gain/loss is not algebraically safe, since removing a middle point changes
// which deltas exist, not just their sum.
func RecomputeMetrics(waypoints []*Waypoint) Metrics {
	var m Metrics
	var prev *Waypoint

	for _, wp := range waypoints {
		m = UpdateMetrics(m, prev, wp)
		prev = wp
	}

	return m
}
