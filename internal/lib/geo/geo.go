package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// EarthRadiusKm is the mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// Point represents a geographic coordinate in decimal degrees (WGS84).
// Points are immutable values; a position update replaces the whole Point.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// IsValid reports whether the point holds plausible WGS84 coordinates.
func (p Point) IsValid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceKm calculates the great-circle distance between two points in
// kilometers using the Haversine formula. The result is symmetric and zero
// for identical points; it is defined for any pair of finite coordinates.
func DistanceKm(a, b Point) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}

	lat1 := a.Latitude * math.Pi / 180
	lon1 := a.Longitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	lon2 := b.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Offset returns a new point shifted by the given deltas in degrees.
// Used by the simulated tracker to advance along a deterministic path.
func Offset(p Point, dLat, dLng float64) Point {
	return Point{
		Latitude:  p.Latitude + dLat,
		Longitude: p.Longitude + dLng,
	}
}

// DecodeRoute decodes a Google encoded polyline string into a point sequence.
// Every decoded coordinate is validated before the route is returned.
func DecodeRoute(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded route string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode route: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{Latitude: coord[0], Longitude: coord[1]}
		if !points[i].IsValid() {
			return nil, errors.New("decoded route contains invalid coordinates")
		}
	}

	return points, nil
}
