package store

import (
	"context"
	"database/sql"
	"fmt"

	"visitrouter/internal/vrp"
)

// CurrentVisitorFor returns the visitor a visit was assigned to in the most
// recent recorded solve for date, if any — the value a caller feeds into
// Visit.CurrentVisitor to activate the reassignment-stability term.
func (s *Store) CurrentVisitorFor(ctx context.Context, visit vrp.VisitID, date vrp.Date) (vrp.VisitorID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visitorID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT visitor_id FROM prior_assignments WHERE visit_id = ? AND service_date = ?
	`, int64(visit), int64(date)).Scan(&visitorID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: query prior assignment: %w", err)
	}
	return vrp.VisitorID(visitorID), true, nil
}

// RecordAssignments overwrites the prior-assignment snapshot for date with
// the routes of a completed solve, so the next solve over the same date can
// penalise reassignment. Snapshots are keyed by date: a solve for another
// date does not see them.
func (s *Store) RecordAssignments(ctx context.Context, date vrp.Date, routes []vrp.RouteResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin assignment transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prior_assignments WHERE service_date = ?`, int64(date)); err != nil {
		return fmt.Errorf("store: clear prior assignments: %w", err)
	}

	for _, route := range routes {
		for _, visitID := range route.VisitIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO prior_assignments (visit_id, service_date, visitor_id)
				VALUES (?, ?, ?)
			`, int64(visitID), int64(date), int64(route.VisitorID)); err != nil {
				return fmt.Errorf("store: insert prior assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit prior assignments: %w", err)
	}
	return nil
}
