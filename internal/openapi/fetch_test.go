package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/config"
)

const minimalSpec = `{"openapi": "3.0.0", "info": {"title": "test"}, "paths": {}}`

// memoryKV is an in-memory KeyValueStorage for tests.
type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return v, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryKV) GetAll(ctx context.Context) (map[string]string, error) {
	return m.data, nil
}

func (m *memoryKV) seed(t *testing.T, fetchedAt time.Time, body string) {
	t.Helper()
	entry, err := json.Marshal(cachedDocument{FetchedAt: fetchedAt, Body: []byte(body)})
	if err != nil {
		t.Fatalf("seed marshal failed: %v", err)
	}
	m.data[specCacheKey] = string(entry)
}

func newTestFetcher(baseURL string, store *memoryKV) *Fetcher {
	return NewFetcher(baseURL, store, config.SpecConfig{CacheTTLHours: 24, FetchRetries: 1}, common.NewSilentLogger())
}

func TestLoadFetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		hits.Add(1)
		fmt.Fprint(w, minimalSpec)
	}))
	defer srv.Close()

	store := newMemoryKV()
	f := newTestFetcher(srv.URL, store)

	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Title() != "test" {
		t.Errorf("unexpected document: %q", doc.Title())
	}
	if hits.Load() != 1 {
		t.Errorf("expected one fetch, got %d", hits.Load())
	}
	if _, ok := store.data[specCacheKey]; !ok {
		t.Error("fetched document should be cached")
	}

	// Second load must come from cache.
	if _, err := f.Load(context.Background()); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("fresh cache should short-circuit the fetch, got %d hits", hits.Load())
	}
}

func TestLoadFreshCacheSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("network should not be touched with a fresh cache")
	}))
	defer srv.Close()

	store := newMemoryKV()
	store.seed(t, time.Now().Add(-1*time.Hour), minimalSpec)

	f := newTestFetcher(srv.URL, store)
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Title() != "test" {
		t.Errorf("unexpected document: %q", doc.Title())
	}
}

func TestLoadFallsBackToExpiredCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newMemoryKV()
	// Expired (past 24h TTL) but inside the stale window.
	store.seed(t, time.Now().Add(-48*time.Hour), minimalSpec)

	f := newTestFetcher(srv.URL, store)
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if doc.Title() != "test" {
		t.Errorf("unexpected document: %q", doc.Title())
	}
}

func TestLoadRejectsTooStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := newMemoryKV()
	// Past the stale window (7 * 24h).
	store.seed(t, time.Now().Add(-200*24*time.Hour), minimalSpec)

	f := newTestFetcher(srv.URL, store)
	if _, err := f.Load(context.Background()); err == nil {
		t.Error("expected error when the cached copy is too stale")
	}
}

func TestLoadWithoutCacheReturnsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, newMemoryKV())
	if _, err := f.Load(context.Background()); err == nil {
		t.Error("expected error when fetch fails with no cache")
	}
}

func TestLoadDiscardsCorruptCacheEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, minimalSpec)
	}))
	defer srv.Close()

	store := newMemoryKV()
	store.data[specCacheKey] = "not json"

	f := newTestFetcher(srv.URL, store)
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Title() != "test" {
		t.Errorf("unexpected document: %q", doc.Title())
	}
}

func TestLoadRefetchesWhenFreshCacheNoLongerParses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, minimalSpec)
	}))
	defer srv.Close()

	store := newMemoryKV()
	// Fresh by age, but the stored body is not a valid document.
	store.seed(t, time.Now().Add(-1*time.Hour), `{"paths": {}}`)

	f := newTestFetcher(srv.URL, store)
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Title() != "test" {
		t.Errorf("unexpected document: %q", doc.Title())
	}
	if hits.Load() != 1 {
		t.Errorf("unparseable fresh cache should trigger a refetch, got %d hits", hits.Load())
	}
}

func TestLoadToleratesNilStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, minimalSpec)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, nil, config.SpecConfig{CacheTTLHours: 1, FetchRetries: 1}, common.NewSilentLogger())
	if _, err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}
