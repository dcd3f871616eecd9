package vrp

import (
	"log"
	"sync"

	"visitrouter/internal/geo"
)

// routeState is the solver's mutable, in-progress view of one visitor's
// route. It never outlives a single Solve call (§3: no persistent state
// survives solve()).
type routeState struct {
	visitor *Visitor
	visits  []*Visit
	windows []Window
	cost    int
}

func (r *routeState) apply(res scheduleResult, visits []*Visit) {
	r.visits = visits
	r.windows = res.windows
	r.cost = res.cost
}

// classify partitions visits by pin class (§4.4 step 1). Visits pinned to a
// date other than serviceDate are reported WrongDate immediately; visits
// pinned to a visitor without one named are reported MissingPinnedVisitor;
// everything else either lands in a per-visitor pinned bucket or the free
// pool, preserving input order in both.
func classify(visits []*Visit, serviceDate Date) (pinned map[VisitorID][]*Visit, free []*Visit, unassigned []UnassignedVisit) {
	pinned = make(map[VisitorID][]*Visit)
	for _, v := range visits {
		if v.PinnedDate != nil && *v.PinnedDate != serviceDate {
			unassigned = append(unassigned, UnassignedVisit{VisitID: v.ID, Reason: ReasonWrongDate})
			continue
		}

		switch v.PinType {
		case PinVisitor, PinVisitorAndDate:
			if v.PinnedVisitor == nil {
				unassigned = append(unassigned, UnassignedVisit{VisitID: v.ID, Reason: ReasonMissingPinnedVisitor})
				continue
			}
			pinned[*v.PinnedVisitor] = append(pinned[*v.PinnedVisitor], v)
		default:
			free = append(free, v)
		}
	}
	return pinned, free, unassigned
}

// collectLocations gathers every coordinate touched by a solve: visitor
// start/end locations, then every visit location, in that order, ready for
// geo.Dedupe (§4.1, §4.4 step 2).
func collectLocations(visits []*Visit, visitors []*Visitor) []Coordinate {
	locs := make([]Coordinate, 0, 2*len(visitors)+len(visits))
	for _, vr := range visitors {
		if vr.StartLocation != nil {
			locs = append(locs, *vr.StartLocation)
		}
		if vr.EndLocation != nil {
			locs = append(locs, *vr.EndLocation)
		}
	}
	for _, v := range visits {
		locs = append(locs, v.Location)
	}
	return locs
}

// seedPinnedRoutes builds one routeState per visitor, appending that
// visitor's pinned visits in input order and attempting to schedule them.
// An infeasible pinned route unassigns all of that visitor's pinned visits
// with NoFeasibleWindow — they cannot be moved elsewhere (§4.4 step 3).
func seedPinnedRoutes(
	visitors []*Visitor,
	pinned map[VisitorID][]*Visit,
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
	availFor func(VisitorID) ([]Window, bool),
) (routes []*routeState, unassigned []UnassignedVisit) {
	routes = make([]*routeState, 0, len(visitors))
	for _, visitor := range visitors {
		route := &routeState{visitor: visitor, visits: pinned[visitor.ID]}

		if len(route.visits) > 0 {
			segs, ok := availFor(visitor.ID)
			if ok {
				if res, fits := Schedule(visitor, route.visits, segs, matrix, index, opts); fits {
					route.apply(res, route.visits)
					routes = append(routes, route)
					continue
				}
			}
			for _, v := range route.visits {
				unassigned = append(unassigned, UnassignedVisit{VisitID: v.ID, Reason: ReasonNoFeasibleWindow})
			}
			route.visits = nil
		}

		routes = append(routes, route)
	}
	return routes, unassigned
}

// isCapableOf reports whether any visitor in the fleet could ever satisfy
// the visit's required capabilities, independent of availability.
func isCapableOf(v *Visit, visitors []*Visitor) bool {
	for _, visitor := range visitors {
		if visitor.hasCapabilities(v.RequiredCapabilities) {
			return true
		}
	}
	return false
}

// routeCandidate is the result of evaluating one route as an insertion
// target for a free visit.
type routeCandidate struct {
	routeIndex int
	position   int
	cost       int
	schedule   scheduleResult
	available  bool
	feasible   bool
}

// bestInsertion evaluates inserting v into every (route, position) slot
// across routes that have the required capabilities, data-parallel per
// route per §5: each worker only reads routes/matrix (availability goes
// through the mutex-guarded availFor cache) and computes its own per-route
// best, and results are reduced by minimum cost with a
// deterministic tie-break to the lowest route index (ties broken by the
// earliest route, then earliest position, by construction of the reduction
// below).
func bestInsertion(
	v *Visit,
	routes []*routeState,
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
	availFor func(VisitorID) ([]Window, bool),
) (best routeCandidate, anyAvailable bool) {
	results := make([]routeCandidate, len(routes))

	var wg sync.WaitGroup
	for i, route := range routes {
		if !route.visitor.hasCapabilities(v.RequiredCapabilities) {
			continue
		}
		wg.Add(1)
		go func(i int, route *routeState) {
			defer wg.Done()
			results[i] = evaluateRouteInsertion(v, i, route, matrix, index, opts, availFor)
		}(i, route)
	}
	wg.Wait()

	best = routeCandidate{cost: -1}
	for _, c := range results {
		if c.available {
			anyAvailable = true
		}
		if !c.feasible {
			continue
		}
		if best.cost < 0 || c.cost < best.cost {
			best = c
		}
	}
	return best, anyAvailable
}

// evaluateRouteInsertion computes the cheapest feasible position to insert
// v into route, scheduling a freshly built candidate sequence for each
// position (§4.4 step 4 / §9: scratch-sequence candidates, not reused
// Route state, since each candidate must be scheduled independently).
func evaluateRouteInsertion(
	v *Visit,
	routeIndex int,
	route *routeState,
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
	availFor func(VisitorID) ([]Window, bool),
) routeCandidate {
	segs, ok := availFor(route.visitor.ID)
	out := routeCandidate{routeIndex: routeIndex, available: ok, cost: -1}
	if !ok {
		return out
	}

	for pos := 0; pos <= len(route.visits); pos++ {
		candidate := insertVisitAt(route.visits, v, pos)
		res, feasible := Schedule(route.visitor, candidate, segs, matrix, index, opts)
		if !feasible {
			continue
		}
		if out.cost < 0 || res.cost < out.cost {
			out.cost = res.cost
			out.position = pos
			out.schedule = res
			out.feasible = true
		}
	}
	return out
}

func insertVisitAt(visits []*Visit, v *Visit, pos int) []*Visit {
	out := make([]*Visit, 0, len(visits)+1)
	out = append(out, visits[:pos]...)
	out = append(out, v)
	out = append(out, visits[pos:]...)
	return out
}

// insertFreeVisits runs cheapest insertion over every free visit in input
// order (§4.4 step 4), committing the best feasible (route, position) found
// for each, or recording why none could be found.
func insertFreeVisits(
	free []*Visit,
	visitors []*Visitor,
	routes []*routeState,
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
	availFor func(VisitorID) ([]Window, bool),
) (unassigned []UnassignedVisit) {
	for _, v := range free {
		if !isCapableOf(v, visitors) {
			unassigned = append(unassigned, UnassignedVisit{VisitID: v.ID, Reason: ReasonNoCapableVisitor})
			continue
		}

		best, anyAvailable := bestInsertion(v, routes, matrix, index, opts, availFor)
		if best.cost < 0 {
			reason := ReasonNoCapableVisitor
			if anyAvailable {
				reason = ReasonNoFeasibleWindow
			}
			unassigned = append(unassigned, UnassignedVisit{VisitID: v.ID, Reason: reason})
			continue
		}

		route := routes[best.routeIndex]
		candidate := insertVisitAt(route.visits, v, best.position)
		route.apply(best.schedule, candidate)
	}
	return unassigned
}

func logConstructionSummary(assigned, unassignedCount int) {
	log.Printf("[PLANNER] Construction phase complete: assigned=%d unassigned=%d", assigned, unassignedCount)
}
