// Package geo holds the spherical-earth math used to turn GPS fixes into
// distances, speeds and climbs.
package geo

import (
	"math"

	"healthtrack/backend/internal/model"
)

// EarthRadiusMeters is the mean earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

type Coordinate struct {
	Latitude  float64
	Longitude float64
}

func CoordinateOf(p model.RoutePoint) Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	deltaLat := lat2 - lat1
	deltaLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// PointDistanceMeters is DistanceMeters for two route points.
func PointDistanceMeters(a, b model.RoutePoint) float64 {
	return DistanceMeters(CoordinateOf(a), CoordinateOf(b))
}

// SpeedMetersPerSec is the average ground speed from a to b. It reports 0
// when b is not strictly after a.
func SpeedMetersPerSec(a, b model.RoutePoint) float64 {
	dt := b.Timestamp.Sub(a.Timestamp).Seconds()
	if dt <= 0 {
		return 0
	}
	return PointDistanceMeters(a, b) / dt
}

// ElevationDelta is the climb from a to b. Descents and missing altitudes
// count as zero.
func ElevationDelta(a, b model.RoutePoint) float64 {
	if a.Altitude == nil || b.Altitude == nil {
		return 0
	}
	return math.Max(0, *b.Altitude-*a.Altitude)
}

// BearingDegrees is the initial compass bearing from a to b in [0, 360).
func BearingDegrees(a, b Coordinate) float64 {
	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	deltaLon := degreesToRadians(b.Longitude - a.Longitude)

	y := math.Sin(deltaLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)
	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
