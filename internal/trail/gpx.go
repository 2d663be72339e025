package trail

import (
	"errors"
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"
)

// DefaultCreator is the creator string stamped on track exports.
const DefaultCreator = "trailcap"

// ErrNoWaypoints is returned when encoding an empty waypoint list.
var ErrNoWaypoints = errors.New("no waypoints to encode")

// EncodeOptions holds metadata for the track export header.
type EncodeOptions struct {
	// Name is the track name. Optional.
	Name string

	// Type is the trail activity type, mapped to the trk type label.
	Type Type

	// Creator overrides the creator string. Default: DefaultCreator.
	Creator string
}

// EncodeGPX serializes an ordered waypoint list into a GPX 1.1 document with
// a single track and segment. Elevation and time are emitted per point when
// present. The output is deterministic for identical input.
func EncodeGPX(waypoints []*Waypoint, opts EncodeOptions) (string, error) {
	if len(waypoints) == 0 {
		return "", ErrNoWaypoints
	}

	creator := opts.Creator
	if creator == "" {
		creator = DefaultCreator
	}

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: creator,
		Name:    opts.Name,
	}

	startTime := waypoints[0].Timestamp
	if !startTime.IsZero() {
		doc.Time = &startTime
	}

	segment := gpx.GPXTrackSegment{}
	for _, wp := range waypoints {
		point := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  wp.Lat,
				Longitude: wp.Lon,
			},
			Timestamp: wp.Timestamp,
		}
		if wp.Elevation != nil {
			point.Elevation = *gpx.NewNullableFloat64(*wp.Elevation)
		}
		segment.Points = append(segment.Points, point)
	}

	doc.Tracks = []gpx.GPXTrack{
		{
			Name:     opts.Name,
			Type:     opts.Type.ActivityLabel(),
			Segments: []gpx.GPXTrackSegment{segment},
		},
	}

	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return "", fmt.Errorf("encoding gpx: %w", err)
	}

	return string(out), nil
}
