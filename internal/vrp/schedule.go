package vrp

import "visitrouter/internal/geo"

// scheduleResult is the output of a successful Schedule call: one window per
// visit in the input sequence, plus the route's composite cost (§4.3).
type scheduleResult struct {
	windows []Window
	cost    int
}

// Schedule simulates visitor through seq in order, honouring the visitor's
// availability segments and each visit's committed window, and returns a
// feasible per-visit schedule plus its composite cost. It reports
// infeasibility (ok=false) rather than erroring — scheduling failure is an
// expected outcome during construction and local search, not a programmer
// error (§4.2, §7).
//
// Schedule is a pure function of its arguments: it allocates its own
// results and never mutates seq, matrix, or index.
func Schedule(
	visitor *Visitor,
	seq []*Visit,
	availability []Window,
	matrix [][]int,
	index *geo.Index,
	opts SolveOptions,
) (result scheduleResult, ok bool) {
	if len(availability) == 0 {
		return scheduleResult{}, false
	}

	prevLoc := visitor.StartLocation
	if prevLoc == nil && len(seq) > 0 {
		prevLoc = &seq[0].Location
	}
	if prevLoc == nil {
		z := Coordinate{}
		prevLoc = &z
	}

	t := availability[0].Start
	seg := 0
	cost := 0
	windows := make([]Window, 0, len(seq))

	for _, v := range seq {
		travel := travelTime(*prevLoc, v.Location, matrix, index)
		t += travel
		cost += travel

		if v.CommittedWindow != nil {
			cw := *v.CommittedWindow
			if t < cw.Start {
				t = cw.Start
			}
			if t > cw.End {
				return scheduleResult{}, false
			}
		}

		start, newSeg, found := fitInSegment(t, v.Duration, seg, availability, v.CommittedWindow)
		if !found {
			return scheduleResult{}, false
		}

		t = start + v.Duration
		seg = newSeg

		if v.TargetTime != nil {
			dev := start - *v.TargetTime
			if dev < 0 {
				dev = -dev
			}
			cost += dev * opts.TargetTimeWeight
		}

		if v.CurrentVisitor != nil && *v.CurrentVisitor != visitor.ID {
			cost += opts.ReassignmentPenalty
		}

		windows = append(windows, Window{Start: start, End: start + v.Duration})
		loc := v.Location
		prevLoc = &loc
	}

	return scheduleResult{windows: windows, cost: cost}, true
}

// fitInSegment finds the earliest availability segment at or after seg in
// which a visit of the given duration fits entirely, honouring an optional
// committed window (§4.2.1). It returns the chosen start time and the index
// of the segment it was placed in.
func fitInSegment(
	earliestReady int,
	duration int,
	seg int,
	availability []Window,
	committed *Window,
) (start int, segIdx int, ok bool) {
	for idx := seg; idx < len(availability); idx++ {
		a := availability[idx]
		s := earliestReady
		if a.Start > s {
			s = a.Start
		}

		if committed != nil {
			cw := *committed
			if cw.End < a.Start {
				// Committed window ends before any remaining segment opens.
				return 0, 0, false
			}
			if cw.Start > a.End {
				continue
			}
			if cw.Start > s {
				s = cw.Start
			}
			end := s + duration
			if end <= a.End && s <= cw.End && end <= cw.End {
				return s, idx, true
			}
			continue
		}

		end := s + duration
		if end <= a.End {
			return s, idx, true
		}
	}
	return 0, 0, false
}

// travelTime looks up the matrix entry for the leg from -> to using index,
// the coordinate dedupe built once per solve.
func travelTime(from, to Coordinate, matrix [][]int, index *geo.Index) int {
	fromIdx := index.MustLookup(from)
	toIdx := index.MustLookup(to)
	return matrix[fromIdx][toIdx]
}
