package vrp

import (
	"context"
	"log"
	"sync"
	"time"

	"visitrouter/internal/geo"
)

// Solve assigns visits to visitors for a single service date (§4.4): it
// seeds one route per visitor from pinned visits, inserts free visits by
// cheapest feasible insertion, then improves the result with local search,
// before projecting the final routeStates into a PlannerResult.
func Solve(
	ctx context.Context,
	serviceDate Date,
	visits []*Visit,
	visitors []*Visitor,
	availability AvailabilityProvider,
	matrixProvider DistanceMatrixProvider,
	opts SolveOptions,
) (PlannerResult, error) {
	start := time.Now()
	log.Printf("[PLANNER] solving date=%d visits=%d visitors=%d", serviceDate, len(visits), len(visitors))

	pinned, free, unassigned := classify(visits, serviceDate)

	locs := collectLocations(visits, visitors)
	_, index := geo.Dedupe(locs)

	matrixStart := time.Now()
	matrix, err := matrixProvider.MatrixFor(ctx, index.Locations())
	if err != nil {
		return PlannerResult{}, err
	}
	log.Printf("[TIMING] distance matrix built in %s (%d locations)", time.Since(matrixStart), index.Len())

	availFor := cachedAvailability(ctx, availability, serviceDate)

	seedStart := time.Now()
	routes, seedUnassigned := seedPinnedRoutes(visitors, pinned, matrix, index, opts, availFor)
	unassigned = append(unassigned, seedUnassigned...)
	log.Printf("[TIMING] pinned-route seeding in %s", time.Since(seedStart))

	insertStart := time.Now()
	insertUnassigned := insertFreeVisits(free, visitors, routes, matrix, index, opts, availFor)
	unassigned = append(unassigned, insertUnassigned...)
	log.Printf("[TIMING] cheapest-insertion construction in %s", time.Since(insertStart))

	assigned := 0
	for _, r := range routes {
		assigned += len(r.visits)
	}
	logConstructionSummary(assigned, len(unassigned))

	searchStart := time.Now()
	localSearch(routes, availFor, matrix, index, opts)
	log.Printf("[TIMING] local search in %s", time.Since(searchStart))

	result := buildPlannerResult(routes, unassigned)
	log.Printf("[PLANNER] solve complete in %s: routed=%d unassigned=%d", time.Since(start), assigned, len(unassigned))
	return result, nil
}

// cachedAvailability wraps an AvailabilityProvider in a per-solve memoizing
// closure: each visitor's segments are fetched from the collaborator at most
// once per Solve call, since construction and local search both re-query the
// same (visitor, date) pairs many times over (§5). The cache is guarded by a
// mutex because bestInsertion's per-route workers call it concurrently.
func cachedAvailability(ctx context.Context, provider AvailabilityProvider, date Date) func(VisitorID) ([]Window, bool) {
	type entry struct {
		segments []Window
		ok       bool
	}
	cache := make(map[VisitorID]entry)
	var mu sync.Mutex
	return func(id VisitorID) ([]Window, bool) {
		mu.Lock()
		defer mu.Unlock()
		if e, hit := cache[id]; hit {
			return e.segments, e.ok
		}
		segs, ok := provider.AvailabilityFor(ctx, id, date)
		cache[id] = entry{segments: segs, ok: ok}
		return segs, ok
	}
}

// buildPlannerResult projects the solver's working routeStates into the
// public PlannerResult shape (§4.4 step 6): one RouteResult per input
// visitor, even if it ended up with no visits.
func buildPlannerResult(routes []*routeState, unassigned []UnassignedVisit) PlannerResult {
	result := PlannerResult{Unassigned: unassigned}
	for _, r := range routes {
		rr := RouteResult{
			VisitorID:        r.visitor.ID,
			VisitIDs:         make([]VisitID, len(r.visits)),
			EstimatedWindows: r.windows,
			TotalCost:        r.cost,
		}
		for i, v := range r.visits {
			rr.VisitIDs[i] = v.ID
		}
		result.Routes = append(result.Routes, rr)
	}
	return result
}
