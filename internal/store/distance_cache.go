package store

import (
	"context"
	"database/sql"
	"fmt"

	"visitrouter/internal/geo"
)

// CacheEntry is one cached leg: the travel time in seconds from Origin to
// Dest, keyed on their rounded (six-decimal) coordinates.
type CacheEntry struct {
	Origin  geo.Coordinate
	Dest    geo.Coordinate
	Seconds int
}

// roundedE6 applies the same 6-decimal rounding rule as geo.KeyOf, so the
// cache's primary key lines up with the index the solver looks locations up
// by. geo.Key's fields are unexported, so the rounding is repeated here
// rather than reused directly.
func roundedE6(v float64) int64 {
	if v >= 0 {
		return int64(v*1_000_000 + 0.5)
	}
	return -int64(-v*1_000_000 + 0.5)
}

// Get returns the cached travel time in seconds for the leg from -> to, if
// present.
func (s *Store) Get(ctx context.Context, from, to geo.Coordinate) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var seconds int
	err := s.db.QueryRowContext(ctx, `
		SELECT seconds FROM distance_cache
		WHERE origin_lat_e6 = ? AND origin_lng_e6 = ? AND dest_lat_e6 = ? AND dest_lng_e6 = ?
	`, roundedE6(from.Lat), roundedE6(from.Lng), roundedE6(to.Lat), roundedE6(to.Lng)).Scan(&seconds)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: query distance cache: %w", err)
	}
	return seconds, true, nil
}

// SetBatch upserts a batch of cache entries in a single transaction.
func (s *Store) SetBatch(ctx context.Context, entries []CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin distance cache transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO distance_cache (origin_lat_e6, origin_lng_e6, dest_lat_e6, dest_lng_e6, seconds)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (origin_lat_e6, origin_lng_e6, dest_lat_e6, dest_lng_e6)
			DO UPDATE SET seconds = excluded.seconds, cached_at = CURRENT_TIMESTAMP
		`, roundedE6(e.Origin.Lat), roundedE6(e.Origin.Lng), roundedE6(e.Dest.Lat), roundedE6(e.Dest.Lng), e.Seconds)
		if err != nil {
			return fmt.Errorf("store: upsert distance cache entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit distance cache: %w", err)
	}
	return nil
}
