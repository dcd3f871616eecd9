package store

import (
	"context"
	"fmt"
	"log"

	"visitrouter/internal/vrp"
)

// AvailabilityFor implements vrp.AvailabilityProvider, returning a visitor's
// working-time segments for a date ordered by start time ascending. The
// ORDER BY supplies the sorted half of the solver's precondition; overlap
// between segments is not checked here or downstream.
func (s *Store) AvailabilityFor(ctx context.Context, visitor vrp.VisitorID, date vrp.Date) ([]vrp.Window, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_seconds, end_seconds
		FROM availability_segments
		WHERE visitor_id = ? AND service_date = ?
		ORDER BY start_seconds ASC
	`, int64(visitor), int64(date))
	if err != nil {
		log.Printf("[STORE] availability query failed: visitor=%d date=%d err=%v", visitor, date, err)
		return nil, false
	}
	defer rows.Close()

	var segments []vrp.Window
	for rows.Next() {
		var w vrp.Window
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			log.Printf("[STORE] availability scan failed: visitor=%d date=%d err=%v", visitor, date, err)
			return nil, false
		}
		segments = append(segments, w)
	}
	if len(segments) == 0 {
		return nil, false
	}
	return segments, true
}

// PutAvailability replaces a visitor's availability segments for a date with
// segments, which must already be sorted and non-overlapping.
func (s *Store) PutAvailability(ctx context.Context, visitor vrp.VisitorID, date vrp.Date, segments []vrp.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin availability transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM availability_segments WHERE visitor_id = ? AND service_date = ?
	`, int64(visitor), int64(date)); err != nil {
		return fmt.Errorf("store: clear availability: %w", err)
	}

	for _, w := range segments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO availability_segments (visitor_id, service_date, start_seconds, end_seconds)
			VALUES (?, ?, ?, ?)
		`, int64(visitor), int64(date), w.Start, w.End); err != nil {
			return fmt.Errorf("store: insert availability segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit availability: %w", err)
	}
	return nil
}
