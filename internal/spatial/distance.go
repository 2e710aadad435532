package spatial

import (
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// WidthMeters measures the box's east-west extent at its center latitude.
func (b BoundingBox) WidthMeters() float64 {
	midLat := (b.North + b.South) / 2
	return HaversineDistance(midLat, b.West, midLat, b.East)
}

// HeightMeters measures the box's north-south extent.
func (b BoundingBox) HeightMeters() float64 {
	midLng := (b.West + b.East) / 2
	return HaversineDistance(b.South, midLng, b.North, midLng)
}

// AreaSqKm approximates the viewport area from its center-line extents.
// Good enough for logging and zoom heuristics at Irish latitudes.
func (b BoundingBox) AreaSqKm() float64 {
	return b.WidthMeters() * b.HeightMeters() / 1e6
}

// SpanMeters returns the diagonal extent of the box.
func (b BoundingBox) SpanMeters() float64 {
	return HaversineDistance(b.South, b.West, b.North, b.East)
}
