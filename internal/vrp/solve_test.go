package vrp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitrouter/internal/vrp"
	"visitrouter/internal/vrp/vrptest"
)

func TestSolveRoutesFreeVisitsAndReportsDiagnostics(t *testing.T) {
	start := vrp.Coordinate{Lat: 0, Lng: 0}
	locA := vrp.Coordinate{Lat: 0, Lng: 0.01}
	locB := vrp.Coordinate{Lat: 0, Lng: 0.02}

	visitor := &vrp.Visitor{ID: 1, StartLocation: &start}

	serviceDate := vrp.Date(20260730)
	wrongDate := vrp.Date(20260731)

	free1 := &vrp.Visit{ID: 1, Location: locA, Duration: 60}
	free2 := &vrp.Visit{ID: 2, Location: locB, Duration: 60}
	wrongDated := &vrp.Visit{ID: 3, PinType: vrp.PinDate, PinnedDate: &wrongDate}
	missingPin := &vrp.Visit{ID: 4, PinType: vrp.PinVisitor}

	visits := []*vrp.Visit{free1, free2, wrongDated, missingPin}
	visitors := []*vrp.Visitor{visitor}

	availability := &vrptest.AvailabilityStub{
		Segments: map[vrp.VisitorID][]vrp.Window{
			1: {{Start: 0, End: 100000}},
		},
	}
	matrix := &vrptest.MatrixStub{ScaleFactor: 1000}

	result, err := vrp.Solve(context.Background(), serviceDate, visits, visitors, availability, matrix, vrp.DefaultSolveOptions())
	require.NoError(t, err)

	require.Len(t, result.Routes, 1)
	assert.ElementsMatch(t, []vrp.VisitID{1, 2}, result.Routes[0].VisitIDs)

	require.Len(t, result.Unassigned, 2)
	reasons := map[vrp.VisitID]vrp.UnassignedReason{}
	for _, u := range result.Unassigned {
		reasons[u.VisitID] = u.Reason
	}
	assert.Equal(t, vrp.ReasonWrongDate, reasons[3])
	assert.Equal(t, vrp.ReasonMissingPinnedVisitor, reasons[4])
}

func TestSolveReportsNoCapableVisitorForUnmatchedCapability(t *testing.T) {
	start := vrp.Coordinate{Lat: 0, Lng: 0}
	visitor := &vrp.Visitor{ID: 1, StartLocation: &start, Capabilities: map[string]struct{}{}}
	v := &vrp.Visit{ID: 1, Location: vrp.Coordinate{Lat: 0, Lng: 0.01}, Duration: 30, RequiredCapabilities: map[string]struct{}{"lift": {}}}

	availability := &vrptest.AvailabilityStub{
		Segments: map[vrp.VisitorID][]vrp.Window{1: {{Start: 0, End: 100000}}},
	}
	matrix := &vrptest.MatrixStub{ScaleFactor: 1000}

	result, err := vrp.Solve(context.Background(), vrp.Date(1), []*vrp.Visit{v}, []*vrp.Visitor{visitor}, availability, matrix, vrp.DefaultSolveOptions())
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Empty(t, result.Routes[0].VisitIDs)
	require.Len(t, result.Unassigned, 1)
	assert.Equal(t, vrp.ReasonNoCapableVisitor, result.Unassigned[0].Reason)
}

func TestSolvePropagatesMatrixProviderError(t *testing.T) {
	start := vrp.Coordinate{Lat: 0, Lng: 0}
	visitor := &vrp.Visitor{ID: 1, StartLocation: &start}
	availability := &vrptest.AvailabilityStub{Segments: map[vrp.VisitorID][]vrp.Window{1: {{Start: 0, End: 1000}}}}
	matrix := &vrptest.MatrixStub{Err: assert.AnError}

	_, err := vrp.Solve(context.Background(), vrp.Date(1), nil, []*vrp.Visitor{visitor}, availability, matrix, vrp.DefaultSolveOptions())
	assert.ErrorIs(t, err, assert.AnError)
}
