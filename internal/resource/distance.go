package resource

import (
	"math"

	"beacon/internal/geocode"
)

const earthRadiusMeters = 6371000

// haversineMeters computes the great-circle distance between two points.
// Accurate to well under a meter at relief-coordination radii.
func haversineMeters(a, b geocode.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
