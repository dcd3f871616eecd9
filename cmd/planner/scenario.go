package main

import (
	"encoding/json"
	"fmt"
	"io"

	"visitrouter/internal/vrp"
)

// scenario is the JSON-friendly shape of a planner run: a service date, the
// visitor fleet, and the visits to route. It exists because vrp.Visit and
// vrp.Visitor use map[string]struct{} for capability sets, which doesn't
// round-trip through JSON on its own.
type scenario struct {
	ServiceDate int64            `json:"service_date"`
	Options     *optionsDTO      `json:"options,omitempty"`
	Visitors    []visitorDTO     `json:"visitors"`
	Visits      []visitDTO       `json:"visits"`
}

type optionsDTO struct {
	TargetTimeWeight      *int `json:"target_time_weight,omitempty"`
	ReassignmentPenalty   *int `json:"reassignment_penalty,omitempty"`
	LocalSearchIterations *int `json:"local_search_iterations,omitempty"`
}

type coordinateDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type visitorDTO struct {
	ID            int64          `json:"id"`
	StartLocation *coordinateDTO `json:"start_location,omitempty"`
	EndLocation   *coordinateDTO `json:"end_location,omitempty"`
	Capabilities  []string       `json:"capabilities,omitempty"`
}

type windowDTO struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type visitDTO struct {
	ID                   int64          `json:"id"`
	Location             coordinateDTO  `json:"location"`
	DurationSeconds      int            `json:"duration_seconds"`
	PinType              string         `json:"pin_type,omitempty"` // "none" (default), "visitor", "date", "visitor_and_date"
	PinnedVisitor        *int64         `json:"pinned_visitor,omitempty"`
	PinnedDate           *int64         `json:"pinned_date,omitempty"`
	CommittedWindow      *windowDTO     `json:"committed_window,omitempty"`
	TargetTimeSeconds    *int           `json:"target_time_seconds,omitempty"`
	RequiredCapabilities []string       `json:"required_capabilities,omitempty"`
	CurrentVisitor       *int64         `json:"current_visitor,omitempty"`
}

func parseScenario(r io.Reader) (*scenario, error) {
	var s scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("planner: decode scenario: %w", err)
	}
	return &s, nil
}

func toCoordinate(c coordinateDTO) vrp.Coordinate {
	return vrp.Coordinate{Lat: c.Lat, Lng: c.Lng}
}

func toCapabilitySet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s *scenario) buildVisitors() []*vrp.Visitor {
	visitors := make([]*vrp.Visitor, len(s.Visitors))
	for i, v := range s.Visitors {
		visitor := &vrp.Visitor{
			ID:           vrp.VisitorID(v.ID),
			Capabilities: toCapabilitySet(v.Capabilities),
		}
		if v.StartLocation != nil {
			loc := toCoordinate(*v.StartLocation)
			visitor.StartLocation = &loc
		}
		if v.EndLocation != nil {
			loc := toCoordinate(*v.EndLocation)
			visitor.EndLocation = &loc
		}
		visitors[i] = visitor
	}
	return visitors
}

func pinTypeFromString(s string) vrp.PinType {
	switch s {
	case "visitor":
		return vrp.PinVisitor
	case "date":
		return vrp.PinDate
	case "visitor_and_date":
		return vrp.PinVisitorAndDate
	default:
		return vrp.PinNone
	}
}

func (s *scenario) buildVisits() []*vrp.Visit {
	visits := make([]*vrp.Visit, len(s.Visits))
	for i, v := range s.Visits {
		visit := &vrp.Visit{
			ID:                   vrp.VisitID(v.ID),
			Location:             toCoordinate(v.Location),
			Duration:             v.DurationSeconds,
			PinType:              pinTypeFromString(v.PinType),
			RequiredCapabilities: toCapabilitySet(v.RequiredCapabilities),
		}
		if v.PinnedVisitor != nil {
			id := vrp.VisitorID(*v.PinnedVisitor)
			visit.PinnedVisitor = &id
		}
		if v.PinnedDate != nil {
			d := vrp.Date(*v.PinnedDate)
			visit.PinnedDate = &d
		}
		if v.CommittedWindow != nil {
			w := vrp.Window{Start: v.CommittedWindow.Start, End: v.CommittedWindow.End}
			visit.CommittedWindow = &w
		}
		if v.TargetTimeSeconds != nil {
			t := *v.TargetTimeSeconds
			visit.TargetTime = &t
		}
		if v.CurrentVisitor != nil {
			id := vrp.VisitorID(*v.CurrentVisitor)
			visit.CurrentVisitor = &id
		}
		visits[i] = visit
	}
	return visits
}

func (s *scenario) buildOptions() vrp.SolveOptions {
	opts := vrp.DefaultSolveOptions()
	if s.Options == nil {
		return opts
	}
	if s.Options.TargetTimeWeight != nil {
		opts.TargetTimeWeight = *s.Options.TargetTimeWeight
	}
	if s.Options.ReassignmentPenalty != nil {
		opts.ReassignmentPenalty = *s.Options.ReassignmentPenalty
	}
	if s.Options.LocalSearchIterations != nil {
		opts.LocalSearchIterations = *s.Options.LocalSearchIterations
	}
	return opts
}
