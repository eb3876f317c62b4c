// Package geo holds great-circle helpers shared by the route engine.
package geo

import (
	"math"
	"school-route-service/internal/domain"
)

// EarthRadiusMiles is the mean Earth radius used for all route distances.
const EarthRadiusMiles = 3958.8

// DistanceMiles returns the haversine great-circle distance between a and b.
// The sqrt argument is clamped to [0, 1] so rounding near antipodal points
// cannot push asin out of its domain.
func DistanceMiles(a, b domain.Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

// TravelMinutes converts a distance to minutes at the given average speed.
func TravelMinutes(miles, mph float64) float64 {
	return miles / mph * 60
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
