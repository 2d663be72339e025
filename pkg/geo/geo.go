// Package geo provides great-circle distance calculations for trail capture.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math.
// Distances are meters everywhere; no other radius or unit is used.
const EarthRadiusMeters = 6371000

// Point represents a geographic point with latitude and longitude in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Distance calculates the great-circle distance between two points in meters
// using the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PathLength calculates the total length of an ordered point sequence in
// meters. Returns 0 for fewer than 2 points.
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
