package distance

import (
	"context"
	"math"

	"visitrouter/internal/vrp"
)

// defaultSpeedKMH is the assumed travel speed used to convert great-circle
// distance into a duration, matching original_source's haversine fallback.
const defaultSpeedKMH = 40.0

const earthRadiusKM = 6371.0

// HaversineProvider is a vrp.DistanceMatrixProvider that estimates travel
// time as great-circle distance divided by an assumed speed — used when no
// OSRM base URL is configured. A failed OSRM call does not fall back to this
// provider; its error is returned to the caller.
type HaversineProvider struct {
	// SpeedKMH overrides the assumed travel speed; defaults to
	// defaultSpeedKMH if zero.
	SpeedKMH float64
}

var _ vrp.DistanceMatrixProvider = (*HaversineProvider)(nil)

// MatrixFor computes an n×n duration matrix, in seconds, from great-circle
// distance between each pair of locations.
func (h *HaversineProvider) MatrixFor(_ context.Context, locations []vrp.Coordinate) ([][]int, error) {
	speed := h.SpeedKMH
	if speed == 0 {
		speed = defaultSpeedKMH
	}

	n := len(locations)
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n)
	}
	for i, from := range locations {
		for j, to := range locations {
			if i == j {
				continue
			}
			km := haversineKM(from, to)
			matrix[i][j] = kmToSeconds(km, speed)
		}
	}
	return matrix, nil
}

// haversineKM returns the great-circle distance between two points in
// kilometres.
func haversineKM(a, b vrp.Coordinate) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

// kmToSeconds converts a distance and assumed speed into a travel time in
// whole seconds.
func kmToSeconds(km, speedKMH float64) int {
	hours := km / speedKMH
	return int(hours * 3600)
}
