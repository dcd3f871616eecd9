// Package distance provides vrp.DistanceMatrixProvider realisations: an
// OSRM-backed road-network provider and a haversine great-circle fallback.
package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"visitrouter/internal/geo"
	"visitrouter/internal/store"
	"visitrouter/internal/vrp"
)

// maxOSRMCoordinates is the maximum number of coordinates OSRM's public
// table API accepts in one request.
const maxOSRMCoordinates = 80

// ErrDistanceCalculationFailed reports an OSRM table request that could not
// be completed.
type ErrDistanceCalculationFailed struct {
	Reason string
}

func (e *ErrDistanceCalculationFailed) Error() string {
	return fmt.Sprintf("distance calculation failed: %s", e.Reason)
}

// CacheProvider is the subset of internal/store.Store this provider needs;
// satisfied directly by *store.Store, with a nil CacheProvider disabling
// caching.
type CacheProvider interface {
	Get(ctx context.Context, from, to geo.Coordinate) (seconds int, ok bool, err error)
	SetBatch(ctx context.Context, entries []store.CacheEntry) error
}

// OSRMTableProvider implements vrp.DistanceMatrixProvider against an OSRM
// table endpoint, batching requests above maxOSRMCoordinates and optionally
// persisting results through Cache.
type OSRMTableProvider struct {
	baseURL    string
	httpClient *http.Client
	Cache      CacheProvider
}

type osrmTableResponse struct {
	Code      string      `json:"code"`
	Distances [][]float64 `json:"distances"`
	Durations [][]float64 `json:"durations"`
}

// NewOSRMTableProvider builds a provider against the given OSRM base URL
// (e.g. "https://router.project-osrm.org"), optionally backed by cache.
func NewOSRMTableProvider(baseURL string, cache CacheProvider) *OSRMTableProvider {
	return &OSRMTableProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		Cache:      cache,
	}
}

var _ vrp.DistanceMatrixProvider = (*OSRMTableProvider)(nil)

// MatrixFor returns the duration matrix, in seconds, for locations, aligned
// row/column with the input order.
func (p *OSRMTableProvider) MatrixFor(ctx context.Context, locations []vrp.Coordinate) ([][]int, error) {
	n := len(locations)
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n)
	}
	if n == 0 {
		return matrix, nil
	}

	var missing []int
	seen := make(map[int]bool)
	if p.Cache != nil {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				seconds, ok, err := p.Cache.Get(ctx, locations[i], locations[j])
				if err != nil {
					return nil, fmt.Errorf("distance: cache lookup: %w", err)
				}
				if ok {
					matrix[i][j] = seconds
					continue
				}
				if !seen[i] {
					missing = append(missing, i)
					seen[i] = true
				}
			}
		}
		if len(missing) == 0 {
			log.Printf("[OSRM] distance matrix fully cached: points=%d", n)
			return matrix, nil
		}
	}

	log.Printf("[OSRM] distance matrix request: points=%d", n)
	if n <= maxOSRMCoordinates {
		return p.fetchSingle(ctx, locations, matrix)
	}
	log.Printf("[OSRM] using batched requests: points=%d batches=%d", n, (n+maxOSRMCoordinates-1)/maxOSRMCoordinates)
	return p.fetchBatched(ctx, locations, matrix)
}

func (p *OSRMTableProvider) fetchSingle(ctx context.Context, locations []vrp.Coordinate, matrix [][]int) ([][]int, error) {
	n := len(locations)
	resp, err := p.query(ctx, locations, nil, nil)
	if err != nil {
		return nil, err
	}

	var entries []store.CacheEntry
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			seconds := int(resp.Durations[i][j])
			matrix[i][j] = seconds
			entries = append(entries, store.CacheEntry{Origin: locations[i], Dest: locations[j], Seconds: seconds})
		}
	}
	if p.Cache != nil && len(entries) > 0 {
		if err := p.Cache.SetBatch(ctx, entries); err != nil {
			return nil, fmt.Errorf("distance: cache write: %w", err)
		}
	}
	return matrix, nil
}

func (p *OSRMTableProvider) fetchBatched(ctx context.Context, locations []vrp.Coordinate, matrix [][]int) ([][]int, error) {
	n := len(locations)
	var batches [][]int
	for i := 0; i < n; i += maxOSRMCoordinates {
		end := i + maxOSRMCoordinates
		if end > n {
			end = n
		}
		batch := make([]int, end-i)
		for j := i; j < end; j++ {
			batch[j-i] = j
		}
		batches = append(batches, batch)
	}

	var entries []store.CacheEntry
	for bi, batchI := range batches {
		for bj, batchJ := range batches {
			pointSet := make(map[int]bool)
			for _, idx := range batchI {
				pointSet[idx] = true
			}
			for _, idx := range batchJ {
				pointSet[idx] = true
			}

			var batchPoints []vrp.Coordinate
			globalToLocal := make(map[int]int)
			for idx := range pointSet {
				globalToLocal[idx] = len(batchPoints)
				batchPoints = append(batchPoints, locations[idx])
			}

			sources := make([]int, len(batchI))
			for i, idx := range batchI {
				sources[i] = globalToLocal[idx]
			}
			dests := make([]int, len(batchJ))
			for i, idx := range batchJ {
				dests[i] = globalToLocal[idx]
			}

			resp, err := p.query(ctx, batchPoints, sources, dests)
			if err != nil {
				return nil, err
			}

			for si, srcIdx := range batchI {
				for di, dstIdx := range batchJ {
					if srcIdx == dstIdx {
						continue
					}
					seconds := int(resp.Durations[si][di])
					matrix[srcIdx][dstIdx] = seconds
					entries = append(entries, store.CacheEntry{Origin: locations[srcIdx], Dest: locations[dstIdx], Seconds: seconds})
				}
			}

			if bi < len(batches)-1 || bj < len(batches)-1 {
				time.Sleep(100 * time.Millisecond)
			}
		}
	}

	if p.Cache != nil && len(entries) > 0 {
		if err := p.Cache.SetBatch(ctx, entries); err != nil {
			return nil, fmt.Errorf("distance: cache write: %w", err)
		}
	}
	return matrix, nil
}

// query issues one OSRM table request over points, optionally restricted to
// sources/destinations index subsets, and returns the decoded response.
func (p *OSRMTableProvider) query(ctx context.Context, points []vrp.Coordinate, sources, dests []int) (*osrmTableResponse, error) {
	coords := make([]string, len(points))
	for i, pt := range points {
		coords[i] = fmt.Sprintf("%.6f,%.6f", pt.Lng, pt.Lat)
	}

	queryURL := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration", p.baseURL, strings.Join(coords, ";"))
	if sources != nil {
		queryURL += "&sources=" + joinInts(sources)
	}
	if dests != nil {
		queryURL += "&destinations=" + joinInts(dests)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] OSRM request failed: points=%d err=%v", len(points), err)
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[ERROR] OSRM returned status %d: %s", resp.StatusCode, string(body))
		return nil, &ErrDistanceCalculationFailed{Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))}
	}

	var table osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}
	if table.Code != "Ok" {
		return nil, &ErrDistanceCalculationFailed{Reason: fmt.Sprintf("OSRM error code: %s", table.Code)}
	}
	return &table, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ";")
}
