package vrp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySeparatesPinClasses(t *testing.T) {
	visitor1 := VisitorID(1)
	wrongDate := Date(2)
	free := &Visit{ID: 1, PinType: PinNone}
	wrongDated := &Visit{ID: 2, PinType: PinDate, PinnedDate: &wrongDate}
	missingVisitor := &Visit{ID: 3, PinType: PinVisitor}
	pinnedToVisitor := &Visit{ID: 4, PinType: PinVisitor, PinnedVisitor: &visitor1}

	pinned, freeList, unassigned := classify([]*Visit{free, wrongDated, missingVisitor, pinnedToVisitor}, Date(1))

	require.Len(t, freeList, 1)
	assert.Equal(t, VisitID(1), freeList[0].ID)

	require.Len(t, unassigned, 2)
	assert.Equal(t, ReasonWrongDate, unassigned[0].Reason)
	assert.Equal(t, ReasonMissingPinnedVisitor, unassigned[1].Reason)

	require.Contains(t, pinned, visitor1)
	assert.Len(t, pinned[visitor1], 1)
	assert.Equal(t, VisitID(4), pinned[visitor1][0].ID)
}

func TestCollectLocationsOrdersStartEndThenVisits(t *testing.T) {
	startLoc := Coordinate{Lat: 1, Lng: 1}
	endLoc := Coordinate{Lat: 2, Lng: 2}
	visitor := &Visitor{ID: 1, StartLocation: &startLoc, EndLocation: &endLoc}
	visitLoc := Coordinate{Lat: 3, Lng: 3}
	visit := &Visit{ID: 1, Location: visitLoc}

	locs := collectLocations([]*Visit{visit}, []*Visitor{visitor})
	require.Len(t, locs, 3)
	assert.Equal(t, startLoc, locs[0])
	assert.Equal(t, endLoc, locs[1])
	assert.Equal(t, visitLoc, locs[2])
}

func TestSeedPinnedRoutesSchedulesFeasiblePinnedVisits(t *testing.T) {
	start := Coordinate{Lat: 0, Lng: 0}
	loc := Coordinate{Lat: 1, Lng: 1}
	index, matrix := buildMatrix([]Coordinate{start, loc}, map[[2]int]int{{0, 1}: 10})

	visitor := &Visitor{ID: 1, StartLocation: &start}
	v := &Visit{ID: 1, Location: loc, Duration: 5}
	pinned := map[VisitorID][]*Visit{1: {v}}
	availFor := func(VisitorID) ([]Window, bool) { return []Window{{Start: 0, End: 100}}, true }

	routes, unassigned := seedPinnedRoutes([]*Visitor{visitor}, pinned, matrix, index, DefaultSolveOptions(), availFor)
	require.Empty(t, unassigned)
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].visits, 1)
}

func TestSeedPinnedRoutesUnassignsInfeasiblePinnedVisits(t *testing.T) {
	start := Coordinate{Lat: 0, Lng: 0}
	loc := Coordinate{Lat: 1, Lng: 1}
	index, matrix := buildMatrix([]Coordinate{start, loc}, map[[2]int]int{{0, 1}: 10})

	visitor := &Visitor{ID: 1, StartLocation: &start}
	v := &Visit{ID: 1, Location: loc, Duration: 5}
	pinned := map[VisitorID][]*Visit{1: {v}}
	availFor := func(VisitorID) ([]Window, bool) { return nil, false }

	routes, unassigned := seedPinnedRoutes([]*Visitor{visitor}, pinned, matrix, index, DefaultSolveOptions(), availFor)
	require.Len(t, unassigned, 1)
	assert.Equal(t, ReasonNoFeasibleWindow, unassigned[0].Reason)
	require.Len(t, routes, 1)
	assert.Empty(t, routes[0].visits)
}

func TestIsCapableOfChecksEntireFleet(t *testing.T) {
	capable := &Visitor{ID: 1, Capabilities: map[string]struct{}{"lift": {}}}
	incapable := &Visitor{ID: 2, Capabilities: map[string]struct{}{}}
	v := &Visit{ID: 1, RequiredCapabilities: map[string]struct{}{"lift": {}}}

	assert.True(t, isCapableOf(v, []*Visitor{incapable, capable}))
	assert.False(t, isCapableOf(v, []*Visitor{incapable}))
}

func TestInsertFreeVisitsReportsNoCapableVisitor(t *testing.T) {
	visitor := &Visitor{ID: 1, Capabilities: map[string]struct{}{}}
	v := &Visit{ID: 1, RequiredCapabilities: map[string]struct{}{"lift": {}}}
	route := &routeState{visitor: visitor}

	index, matrix := buildMatrix([]Coordinate{{Lat: 0, Lng: 0}}, nil)
	availFor := func(VisitorID) ([]Window, bool) { return []Window{{Start: 0, End: 100}}, true }

	unassigned := insertFreeVisits([]*Visit{v}, []*Visitor{visitor}, []*routeState{route}, matrix, index, DefaultSolveOptions(), availFor)
	require.Len(t, unassigned, 1)
	assert.Equal(t, ReasonNoCapableVisitor, unassigned[0].Reason)
}

func TestInsertFreeVisitsReportsNoFeasibleWindowWhenCommittedWindowUnreachable(t *testing.T) {
	start := Coordinate{Lat: 0, Lng: 0}
	visitor := &Visitor{ID: 1, StartLocation: &start}
	loc := Coordinate{Lat: 1, Lng: 1}
	// The visitor is capable and available, but the visit's committed
	// window falls entirely outside the availability segment, so no
	// schedule can ever satisfy it.
	v := &Visit{ID: 1, Location: loc, Duration: 5, CommittedWindow: &Window{Start: 200, End: 250}}
	route := &routeState{visitor: visitor}

	index, matrix := buildMatrix([]Coordinate{start, loc}, map[[2]int]int{{0, 1}: 10})
	availFor := func(VisitorID) ([]Window, bool) { return []Window{{Start: 0, End: 100}}, true }

	unassigned := insertFreeVisits([]*Visit{v}, []*Visitor{visitor}, []*routeState{route}, matrix, index, DefaultSolveOptions(), availFor)
	require.Len(t, unassigned, 1)
	assert.Equal(t, ReasonNoFeasibleWindow, unassigned[0].Reason)
}

func TestInsertFreeVisitsAssignsCheapestRoute(t *testing.T) {
	start := Coordinate{Lat: 0, Lng: 0}
	loc := Coordinate{Lat: 1, Lng: 1}
	farStart := Coordinate{Lat: 5, Lng: 5}

	near := &Visitor{ID: 1, StartLocation: &start}
	far := &Visitor{ID: 2, StartLocation: &farStart}
	v := &Visit{ID: 1, Location: loc, Duration: 5}

	index, matrix := buildMatrix(
		[]Coordinate{start, loc, farStart},
		map[[2]int]int{{0, 1}: 10, {2, 1}: 1000},
	)
	availFor := func(VisitorID) ([]Window, bool) { return []Window{{Start: 0, End: 10000}}, true }

	routes := []*routeState{{visitor: near}, {visitor: far}}
	unassigned := insertFreeVisits([]*Visit{v}, []*Visitor{near, far}, routes, matrix, index, DefaultSolveOptions(), availFor)

	require.Empty(t, unassigned)
	assert.Len(t, routes[0].visits, 1)
	assert.Empty(t, routes[1].visits)
}
