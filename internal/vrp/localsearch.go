package vrp

import "visitrouter/internal/geo"

// localSearch alternates 2-opt and relocate passes over routes until
// neither improves the global cost or the iteration cap is hit (§4.5). Both
// moves only ever commit a strictly cheaper, feasible candidate, so the
// global cost decreases monotonically pass over pass — which, combined with
// costs being bounded below by zero, guarantees termination regardless of
// the iteration cap.
func localSearch(
	routes []*routeState,
	availFor func(VisitorID) ([]Window, bool),
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
) {
	for iter := 0; iter < opts.LocalSearchIterations; iter++ {
		improvedTwoOpt := twoOptPass(routes, availFor, matrix, index, opts)
		improvedRelocate := relocatePass(routes, availFor, matrix, index, opts)
		if !improvedTwoOpt && !improvedRelocate {
			return
		}
	}
}

// twoOptPass runs one first-improvement 2-opt pass per route: the first
// reversal that strictly lowers that route's own cost is committed, and the
// loop moves to the next route without resetting (§4.5). Other routes are
// unaffected by a 2-opt move, so there is no need to recompute global cost.
func twoOptPass(
	routes []*routeState,
	availFor func(VisitorID) ([]Window, bool),
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
) bool {
	improved := false
	for _, route := range routes {
		n := len(route.visits)
		if n < 3 {
			continue
		}
		segs, ok := availFor(route.visitor.ID)
		if !ok {
			continue
		}

		for i := 0; i <= n-2; i++ {
			found := false
			for j := i + 2; j <= n-1; j++ {
				candidate := reversedSegment(route.visits, i, j)
				res, feasible := Schedule(route.visitor, candidate, segs, matrix, index, opts)
				if !feasible || res.cost >= route.cost {
					continue
				}
				route.apply(res, candidate)
				improved = true
				found = true
				break
			}
			if found {
				break
			}
		}
	}
	return improved
}

// reversedSegment returns a new slice equal to visits with the subsequence
// (i+1..=j) reversed, leaving visits untouched.
func reversedSegment(visits []*Visit, i, j int) []*Visit {
	out := make([]*Visit, len(visits))
	copy(out, visits)
	lo, hi := i+1, j
	for lo < hi {
		out[lo], out[hi] = out[hi], out[lo]
		lo++
		hi--
	}
	return out
}

// relocatePass evaluates every (from-route, visit, to-route, position)
// candidate and commits the first move that strictly lowers the sum of
// route costs, returning immediately afterwards (§4.5: first-improvement,
// one commit per pass).
func relocatePass(
	routes []*routeState,
	availFor func(VisitorID) ([]Window, bool),
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
) bool {
	currentTotal := totalCost(routes)

	for fromIdx, from := range routes {
		for i, v := range from.visits {
			if v.PinType == PinVisitor || v.PinType == PinVisitorAndDate {
				// Pinned-to-visitor visits may only relocate within their
				// own route.
				if moveWithinRoute(routes, fromIdx, i, from, availFor, matrix, index, opts, currentTotal) {
					return true
				}
				continue
			}

			for toIdx, to := range routes {
				if !to.visitor.hasCapabilities(v.RequiredCapabilities) {
					continue
				}
				segsFrom, okFrom := availFor(from.visitor.ID)
				if !okFrom {
					continue
				}
				for pos := 0; pos <= len(to.visits); pos++ {
					if fromIdx == toIdx {
						if pos == i || pos == i+1 {
							continue
						}
					}

					newFrom := removeAt(from.visits, i)
					var toBase []*Visit
					insertPos := pos
					if fromIdx == toIdx {
						toBase = newFrom
						if pos > i {
							insertPos = pos - 1
						}
					} else {
						toBase = to.visits
					}
					newTo := insertVisitAt(toBase, v, insertPos)

					segsTo, okTo := availFor(to.visitor.ID)
					if !okTo {
						continue
					}

					var resFrom scheduleResult
					feasibleFrom := true
					if fromIdx != toIdx {
						resFrom, feasibleFrom = Schedule(from.visitor, newFrom, segsFrom, matrix, index, opts)
						if !feasibleFrom {
							continue
						}
					}
					resTo, feasibleTo := Schedule(to.visitor, newTo, segsTo, matrix, index, opts)
					if !feasibleTo {
						continue
					}

					newTotal := currentTotal - from.cost
					if fromIdx == toIdx {
						newTotal += resTo.cost
					} else {
						newTotal += resFrom.cost + resTo.cost - to.cost
					}

					if newTotal < currentTotal {
						if fromIdx == toIdx {
							to.apply(resTo, newTo)
						} else {
							from.apply(resFrom, newFrom)
							to.apply(resTo, newTo)
						}
						return true
					}
				}
			}
		}
	}
	return false
}

// moveWithinRoute handles relocation for a pinned-to-visitor visit, which
// may only change position inside its own route.
func moveWithinRoute(
	routes []*routeState,
	fromIdx, i int,
	from *routeState,
	availFor func(VisitorID) ([]Window, bool),
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
	currentTotal int,
) bool {
	v := from.visits[i]
	segs, ok := availFor(from.visitor.ID)
	if !ok {
		return false
	}

	for pos := 0; pos <= len(from.visits); pos++ {
		if pos == i || pos == i+1 {
			continue
		}
		removed := removeAt(from.visits, i)
		insertPos := pos
		if pos > i {
			insertPos = pos - 1
		}
		candidate := insertVisitAt(removed, v, insertPos)

		res, feasible := Schedule(from.visitor, candidate, segs, matrix, index, opts)
		if !feasible {
			continue
		}
		newTotal := currentTotal - from.cost + res.cost
		if newTotal < currentTotal {
			from.apply(res, candidate)
			return true
		}
	}
	return false
}

func removeAt(visits []*Visit, pos int) []*Visit {
	out := make([]*Visit, 0, len(visits)-1)
	out = append(out, visits[:pos]...)
	out = append(out, visits[pos+1:]...)
	return out
}

func totalCost(routes []*routeState) int {
	total := 0
	for _, r := range routes {
		total += r.cost
	}
	return total
}
