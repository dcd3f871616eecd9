// Package geo provides the coordinate primitives shared by the solver and
// its distance-matrix collaborators: a canonical integer key for a
// latitude/longitude pair, and deduplication of a coordinate sequence into a
// stable-order index usable as a distance-matrix row/column lookup.
package geo

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Key is the canonical hashable form of a Coordinate: each component rounded
// to six fractional digits and scaled to an integer. Two coordinates are
// "the same location" iff their keys are equal. Never hash raw floats, and
// never round-trip through a decimal string — that reintroduces the
// formatting/parsing cost this key exists to avoid.
type Key struct {
	latE6 int64
	lngE6 int64
}

const coordScale = 1_000_000.0

func round(v float64) int64 {
	if v >= 0 {
		return int64(v*coordScale + 0.5)
	}
	return -int64(-v*coordScale + 0.5)
}

// KeyOf computes the canonical key for c.
func KeyOf(c Coordinate) Key {
	return Key{latE6: round(c.Lat), lngE6: round(c.Lng)}
}

// Index maps canonical coordinate keys to their row/column position in a
// deduplicated, stable-order location list.
type Index struct {
	locations []Coordinate
	byKey     map[Key]int
}

// Dedupe builds a stable-order, deduplicated location list from coords and
// an Index for looking up each location's row/column position. Coordinates
// that share a canonical Key collapse to the first occurrence.
func Dedupe(coords []Coordinate) (locations []Coordinate, index *Index) {
	byKey := make(map[Key]int, len(coords))
	locations = make([]Coordinate, 0, len(coords))
	for _, c := range coords {
		k := KeyOf(c)
		if _, seen := byKey[k]; seen {
			continue
		}
		byKey[k] = len(locations)
		locations = append(locations, c)
	}
	return locations, &Index{locations: locations, byKey: byKey}
}

// Lookup returns the row/column position of c. ok is false if c's canonical
// key was never passed to Dedupe — a programmer error in all legitimate
// callers, since the locations list is always built from the same inputs
// the lookup is later performed on.
func (idx *Index) Lookup(c Coordinate) (int, bool) {
	i, ok := idx.byKey[KeyOf(c)]
	return i, ok
}

// MustLookup is Lookup, panicking on a missing key. Scheduling code runs
// this lookup in its hot path against a location list it built itself, so a
// miss here is a contract breach (§7), not an expected outcome.
func (idx *Index) MustLookup(c Coordinate) int {
	i, ok := idx.Lookup(c)
	if !ok {
		panic("geo: coordinate not present in index")
	}
	return i
}

// Len returns the number of distinct locations in the index.
func (idx *Index) Len() int {
	return len(idx.locations)
}

// Locations returns the deduplicated, stable-order location list backing
// the index — the slice that should be passed to a DistanceMatrixProvider.
func (idx *Index) Locations() []Coordinate {
	return idx.locations
}
