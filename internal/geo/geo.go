// Package geo provides great-circle math over WGS-84 coordinates.
//
// All distances are statute miles; the whole core uses one unit system and
// converts at the boundary. Travel time estimates elsewhere assume a
// constant average speed, a deliberate proxy for a routing engine.
package geo

import (
	"math"

	"pickup-route-service/internal/domain"
)

// EarthRadiusMiles is the mean radius of Earth in statute miles.
const EarthRadiusMiles = 3959.0

var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Miles returns the haversine great-circle distance between two points in
// statute miles. NaN coordinates propagate; callers guard against absent
// coordinates before calling.
func Miles(a, b domain.Coordinates) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial bearing from a to b in degrees [0, 360).
func Bearing(a, b domain.Coordinates) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Cardinal maps a bearing in degrees to one of the eight compass points.
func Cardinal(bearing float64) string {
	idx := int(math.Round(bearing/45)) % 8
	if idx < 0 {
		idx += 8
	}
	return cardinals[idx]
}

func radians(deg float64) float64 { return deg * (math.Pi / 180) }
