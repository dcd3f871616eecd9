// Package vrp implements the time-windowed visit routing solver: constraint
// intake, greedy cheapest-insertion construction, and a 2-opt/relocate local
// search, parameterised over abstract AvailabilityProvider and
// DistanceMatrixProvider collaborators. The solver is single-threaded
// cooperatively pure: Solve owns all of its working state and only borrows
// its inputs (§5 of the design doc).
package vrp

import (
	"context"
	"encoding/json"

	"visitrouter/internal/geo"
)

// VisitID and VisitorID are opaque, equatable, hashable identifiers.
type VisitID int64

// VisitorID identifies a mobile worker/vehicle.
type VisitorID int64

// Date is an opaque, equality-comparable calendar-day identifier (a day
// number, not a timestamp — two dates compare equal iff they name the same
// calendar day).
type Date int64

// Coordinate is the geographic point type used throughout this package.
type Coordinate = geo.Coordinate

// PinType constrains which visitor and/or date a visit may be assigned to.
type PinType int

const (
	// PinNone means the visit is free to be assigned to any capable,
	// available visitor on the service date.
	PinNone PinType = iota
	// PinVisitor hard-binds the visit to a specific visitor.
	PinVisitor
	// PinDate hard-binds the visit to a specific service date.
	PinDate
	// PinVisitorAndDate binds both.
	PinVisitorAndDate
)

// Window is a closed interval of seconds-of-day, Start <= End.
type Window struct {
	Start int
	End   int
}

// Contains reports whether w fully contains o.
func (w Window) Contains(o Window) bool {
	return o.Start >= w.Start && o.End <= w.End
}

// Visit is a single, immutable service occurrence to be routed.
type Visit struct {
	ID       VisitID
	Location Coordinate
	Duration int // seconds, > 0

	PinType         PinType
	PinnedVisitor   *VisitorID // required iff PinType is PinVisitor or PinVisitorAndDate
	PinnedDate      *Date      // required iff PinType is PinDate or PinVisitorAndDate
	CommittedWindow *Window    // optional customer-committed window
	TargetTime      *int       // optional soft preferred start, seconds-of-day

	RequiredCapabilities map[string]struct{}
	CurrentVisitor       *VisitorID // prior assignment, if any
}

// Visitor is a mobile worker/vehicle executing visits in sequence on a date.
type Visitor struct {
	ID            VisitorID
	StartLocation *Coordinate
	// EndLocation is part of the model but never charged in cost by this
	// solver (§9 open question 4): the hook exists so a caller can wire a
	// return-to-start leg later without changing the Visitor shape.
	EndLocation  *Coordinate
	Capabilities map[string]struct{}
}

// hasCapabilities reports whether v's capability set is a superset of
// required.
func (v *Visitor) hasCapabilities(required map[string]struct{}) bool {
	for cap := range required {
		if _, ok := v.Capabilities[cap]; !ok {
			return false
		}
	}
	return true
}

// UnassignedReason is the closed taxonomy of diagnostic reasons a visit can
// fail to be routed (§6.4).
type UnassignedReason int

const (
	ReasonWrongDate UnassignedReason = iota
	ReasonMissingPinnedVisitor
	ReasonNoCapableVisitor
	ReasonNoFeasibleWindow
)

func (r UnassignedReason) String() string {
	switch r {
	case ReasonWrongDate:
		return "WrongDate"
	case ReasonMissingPinnedVisitor:
		return "MissingPinnedVisitor"
	case ReasonNoCapableVisitor:
		return "NoCapableVisitor"
	case ReasonNoFeasibleWindow:
		return "NoFeasibleWindow"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders the reason as its string name rather than its
// underlying int, so planner output stays readable without a lookup table.
func (r UnassignedReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// SolveOptions configures cost weights and the local-search budget (§6.3).
type SolveOptions struct {
	// TargetTimeWeight scales the |start - target| penalty per second.
	// Default 1; must be non-negative.
	TargetTimeWeight int
	// ReassignmentPenalty is a flat cost added when a visit lands on a
	// visitor other than its CurrentVisitor. Default 300; must be
	// non-negative.
	ReassignmentPenalty int
	// LocalSearchIterations caps the outer improvement-loop passes. Default
	// 100; 0 disables improvement entirely.
	LocalSearchIterations int
}

// DefaultSolveOptions returns the spec's documented defaults (§4.3).
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		TargetTimeWeight:      1,
		ReassignmentPenalty:   300,
		LocalSearchIterations: 100,
	}
}

// AvailabilityProvider returns a visitor's working-time segments for a date.
// A nil return (ok=false) means the visitor has no availability that date.
// Segments must be non-overlapping and sorted ascending — the solver treats
// that as a precondition, not something it re-validates per call.
type AvailabilityProvider interface {
	AvailabilityFor(ctx context.Context, visitor VisitorID, date Date) (segments []Window, ok bool)
}

// DistanceMatrixProvider produces an n×n duration matrix (seconds) for a
// coordinate list, aligned row/column with the input order. M[i][i] must be
// zero; no symmetry is assumed.
type DistanceMatrixProvider interface {
	MatrixFor(ctx context.Context, locations []Coordinate) ([][]int, error)
}

// RouteResult is one visitor's finished route.
type RouteResult struct {
	VisitorID        VisitorID
	VisitIDs         []VisitID
	EstimatedWindows []Window
	TotalCost        int
}

// UnassignedVisit reports why a visit could not be routed.
type UnassignedVisit struct {
	VisitID VisitID
	Reason  UnassignedReason
}

// PlannerResult is the output of Solve: one RouteResult per input visitor
// (possibly empty), plus the unassigned visits with their reasons.
type PlannerResult struct {
	Routes     []RouteResult
	Unassigned []UnassignedVisit
}
