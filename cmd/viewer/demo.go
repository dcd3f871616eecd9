package main

import (
	"context"

	"visitrouter/internal/distance"
	"visitrouter/internal/vrp"
)

// demoAvailability is a fixed, in-memory AvailabilityProvider backing the
// bundled demo scenario — every visitor works the same 08:00-17:00 window.
type demoAvailability struct {
	segments []vrp.Window
}

func (d demoAvailability) AvailabilityFor(ctx context.Context, visitor vrp.VisitorID, date vrp.Date) ([]vrp.Window, bool) {
	return d.segments, true
}

// buildDemoScenario returns a small, self-contained routing problem so the
// viewer has something to render without an external scenario file or
// database — three visitors, five visits spread across a city grid.
func buildDemoScenario() (vrp.Date, []*vrp.Visit, []*vrp.Visitor, vrp.AvailabilityProvider, vrp.DistanceMatrixProvider, vrp.SolveOptions) {
	serviceDate := vrp.Date(20260730)

	loc := func(lat, lng float64) vrp.Coordinate { return vrp.Coordinate{Lat: lat, Lng: lng} }

	visitors := []*vrp.Visitor{
		{ID: 1, StartLocation: ptr(loc(40.730, -73.995)), Capabilities: map[string]struct{}{"general": {}}},
		{ID: 2, StartLocation: ptr(loc(40.758, -73.985)), Capabilities: map[string]struct{}{"general": {}, "medical": {}}},
		{ID: 3, StartLocation: ptr(loc(40.700, -74.010)), Capabilities: map[string]struct{}{"general": {}}},
	}

	visits := []*vrp.Visit{
		{ID: 101, Location: loc(40.735, -73.990), Duration: 900, RequiredCapabilities: map[string]struct{}{"general": {}}},
		{ID: 102, Location: loc(40.760, -73.970), Duration: 1200, RequiredCapabilities: map[string]struct{}{"medical": {}}},
		{ID: 103, Location: loc(40.705, -74.005), Duration: 600, RequiredCapabilities: map[string]struct{}{"general": {}}},
		{ID: 104, Location: loc(40.745, -73.980), Duration: 900, RequiredCapabilities: map[string]struct{}{"general": {}},
			CommittedWindow: &vrp.Window{Start: 10 * 3600, End: 12 * 3600}},
		{ID: 105, Location: loc(40.720, -74.000), Duration: 600, RequiredCapabilities: map[string]struct{}{"general": {}},
			PinType: vrp.PinVisitor, PinnedVisitor: ptr(vrp.VisitorID(3))},
	}

	availability := demoAvailability{segments: []vrp.Window{{Start: 8 * 3600, End: 17 * 3600}}}
	matrixProvider := &distance.HaversineProvider{SpeedKMH: 35}

	return serviceDate, visits, visitors, availability, matrixProvider, vrp.DefaultSolveOptions()
}

func ptr[T any](v T) *T { return &v }
