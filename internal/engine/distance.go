package engine

import "math"

const earthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// haversineKm computes the great-circle distance between two coordinate
// pairs in kilometers. This is the exact narrow-phase metric: candidate
// pairs are always re-verified with it, never accepted on the projected
// index distance alone.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// roundKm rounds a distance to 3 decimal places for reporting. The
// threshold comparison always uses the unrounded value.
func roundKm(d float64) float64 {
	return math.Round(d*1000) / 1000
}
