// Package vrptest provides hand-rolled mock collaborators for testing the
// vrp package without a real distance-matrix or availability backend,
// grounded on the teacher's own mockDistanceCalculator/MockDistanceCalculator
// pattern.
package vrptest

import (
	"context"
	"math"

	"visitrouter/internal/geo"
	"visitrouter/internal/vrp"
)

// MatrixStub is a DistanceMatrixProvider that computes straight-line
// Euclidean distance scaled into seconds, with optional per-pair overrides
// and call counting for assertions.
type MatrixStub struct {
	// ScaleFactor converts Euclidean degrees into seconds; defaults to 1 if
	// zero.
	ScaleFactor float64
	// Overrides maps an ordered pair of coordinate keys to a forced travel
	// time, taking precedence over the computed distance.
	Overrides map[[2]geo.Key]int
	// Err, if set, is returned by every MatrixFor call instead of a matrix.
	Err error

	Calls int
}

func (m *MatrixStub) MatrixFor(_ context.Context, locations []vrp.Coordinate) ([][]int, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	scale := m.ScaleFactor
	if scale == 0 {
		scale = 1
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
			if m.Overrides != nil {
				key := [2]geo.Key{geo.KeyOf(from), geo.KeyOf(to)}
				if v, ok := m.Overrides[key]; ok {
					matrix[i][j] = v
					continue
				}
			}
			dLat := from.Lat - to.Lat
			dLng := from.Lng - to.Lng
			dist := math.Sqrt(dLat*dLat + dLng*dLng)
			matrix[i][j] = int(dist * scale)
		}
	}
	return matrix, nil
}

// AvailabilityStub is an AvailabilityProvider backed by a fixed per-visitor
// table, independent of the date argument.
type AvailabilityStub struct {
	Segments map[vrp.VisitorID][]vrp.Window
	Calls    int
}

func (a *AvailabilityStub) AvailabilityFor(_ context.Context, visitor vrp.VisitorID, _ vrp.Date) ([]vrp.Window, bool) {
	a.Calls++
	segs, ok := a.Segments[visitor]
	if !ok || len(segs) == 0 {
		return nil, false
	}
	return segs, true
}
