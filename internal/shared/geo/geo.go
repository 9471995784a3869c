package geo

import "math"

// DefaultRadiusM is the pin visibility radius in meters.
const DefaultRadiusM = 200

const earthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func DistanceM(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng) * 1000
}

// IsWithinRadius reports whether candidate lies within radiusM meters of
// current. NaN coordinates yield NaN distance and therefore false; no error
// is raised for out-of-range input.
func IsWithinRadius(current, candidate Point, radiusM float64) bool {
	return DistanceM(current, candidate) <= radiusM
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
