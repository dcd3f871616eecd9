package distance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitrouter/internal/geo"
	"visitrouter/internal/store"
	"visitrouter/internal/vrp"
)

// mockCacheProvider is a hand-rolled in-memory stand-in for *store.Store's
// cache methods, grounded on the teacher's own mockDistanceCache.
type mockCacheProvider struct {
	entries map[geo.Key]map[geo.Key]int
}

func newMockCacheProvider() *mockCacheProvider {
	return &mockCacheProvider{entries: make(map[geo.Key]map[geo.Key]int)}
}

func (m *mockCacheProvider) Get(_ context.Context, from, to geo.Coordinate) (int, bool, error) {
	byDest, ok := m.entries[geo.KeyOf(from)]
	if !ok {
		return 0, false, nil
	}
	seconds, ok := byDest[geo.KeyOf(to)]
	return seconds, ok, nil
}

func (m *mockCacheProvider) SetBatch(_ context.Context, entries []store.CacheEntry) error {
	for _, e := range entries {
		fromKey := geo.KeyOf(e.Origin)
		if m.entries[fromKey] == nil {
			m.entries[fromKey] = make(map[geo.Key]int)
		}
		m.entries[fromKey][geo.KeyOf(e.Dest)] = e.Seconds
	}
	return nil
}

func TestOSRMTableProviderMatrixForSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/table/v1/driving/")
		resp := osrmTableResponse{
			Code:      "Ok",
			Distances: [][]float64{{0, 35000}, {35000, 0}},
			Durations: [][]float64{{0, 3600}, {3600, 0}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewOSRMTableProvider(server.URL, nil)
	locations := []vrp.Coordinate{{Lat: 40.7128, Lng: -74.0060}, {Lat: 42.3601, Lng: -71.0589}}

	matrix, err := provider.MatrixFor(context.Background(), locations)
	require.NoError(t, err)
	assert.Equal(t, 3600, matrix[0][1])
	assert.Equal(t, 3600, matrix[1][0])
}

func TestOSRMTableProviderSkipsRequestWhenFullyCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not call OSRM when every pair is cached")
	}))
	defer server.Close()

	cache := newMockCacheProvider()
	a := vrp.Coordinate{Lat: 40.0, Lng: -75.0}
	b := vrp.Coordinate{Lat: 41.0, Lng: -76.0}
	require.NoError(t, cache.SetBatch(context.Background(), []store.CacheEntry{
		{Origin: a, Dest: b, Seconds: 1234},
		{Origin: b, Dest: a, Seconds: 1234},
	}))

	provider := NewOSRMTableProvider(server.URL, cache)
	matrix, err := provider.MatrixFor(context.Background(), []vrp.Coordinate{a, b})
	require.NoError(t, err)
	assert.Equal(t, 1234, matrix[0][1])
	assert.Equal(t, 1234, matrix[1][0])
}

func TestOSRMTableProviderPopulatesCacheAfterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := osrmTableResponse{
			Code:      "Ok",
			Distances: [][]float64{{0, 10000}, {10000, 0}},
			Durations: [][]float64{{0, 900}, {900, 0}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cache := newMockCacheProvider()
	a := vrp.Coordinate{Lat: 1, Lng: 1}
	b := vrp.Coordinate{Lat: 2, Lng: 2}

	provider := NewOSRMTableProvider(server.URL, cache)
	_, err := provider.MatrixFor(context.Background(), []vrp.Coordinate{a, b})
	require.NoError(t, err)

	seconds, ok, err := cache.Get(context.Background(), a, b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 900, seconds)
}

func TestOSRMTableProviderSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	provider := NewOSRMTableProvider(server.URL, nil)
	_, err := provider.MatrixFor(context.Background(), []vrp.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}})
	require.Error(t, err)
	var target *ErrDistanceCalculationFailed
	assert.ErrorAs(t, err, &target)
}

func TestOSRMTableProviderEmptyLocationsReturnsEmptyMatrix(t *testing.T) {
	provider := NewOSRMTableProvider("http://example.invalid", nil)
	matrix, err := provider.MatrixFor(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, matrix)
}

func TestOSRMTableProviderBatchesAboveLimit(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		coordsPart := r.URL.Path[len("/table/v1/driving/"):]
		n := len(splitSemicolons(coordsPart))
		distances := make([][]float64, n)
		durations := make([][]float64, n)
		for i := range distances {
			distances[i] = make([]float64, n)
			durations[i] = make([]float64, n)
			for j := range distances[i] {
				if i != j {
					durations[i][j] = 60
				}
			}
		}
		resp := osrmTableResponse{Code: "Ok", Distances: distances, Durations: durations}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	locations := make([]vrp.Coordinate, maxOSRMCoordinates+5)
	for i := range locations {
		locations[i] = vrp.Coordinate{Lat: float64(i), Lng: float64(i)}
	}

	provider := NewOSRMTableProvider(server.URL, nil)
	matrix, err := provider.MatrixFor(context.Background(), locations)
	require.NoError(t, err)
	assert.Equal(t, len(locations), len(matrix))
	assert.Greater(t, requestCount, 1)
}

func splitSemicolons(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
