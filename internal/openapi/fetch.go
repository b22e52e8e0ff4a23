package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/config"
	"github.com/gettakaro/MCP/internal/storage"
)

// specCacheKey is the KV storage key holding the cached document.
const specCacheKey = "openapi:document"

// fetchRetryDelay is the base delay between fetch attempts; attempt N
// waits N times this long.
const fetchRetryDelay = 2 * time.Second

// staleMultiplier bounds how long an expired cached copy may still be used
// as a fallback when refetching fails.
const staleMultiplier = 7

// maxSpecSize is the maximum allowed size for the OpenAPI document (10MB).
const maxSpecSize = 10 << 20

// cachedDocument is the KV storage envelope for the fetched document.
type cachedDocument struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

// Fetcher acquires the OpenAPI document from the Takaro API, caching it in
// local storage within a freshness window and retrying transient failures.
type Fetcher struct {
	specURL    string
	httpClient *http.Client
	store      storage.KeyValueStorage
	ttl        time.Duration
	retries    int
	logger     *common.Logger
	now        func() time.Time
}

// NewFetcher creates a fetcher for <baseURL>/openapi.json.
func NewFetcher(baseURL string, store storage.KeyValueStorage, cfg config.SpecConfig, logger *common.Logger) *Fetcher {
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	retries := cfg.FetchRetries
	if retries <= 0 {
		retries = 3
	}
	return &Fetcher{
		specURL:    strings.TrimRight(baseURL, "/") + "/openapi.json",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		ttl:        ttl,
		retries:    retries,
		logger:     logger,
		now:        time.Now,
	}
}

// Load returns the OpenAPI document, preferring a fresh cached copy, then a
// live fetch, then an expired-but-not-stale cached copy as a last resort.
func (f *Fetcher) Load(ctx context.Context) (*Document, error) {
	cached, age := f.cached(ctx)

	if cached != nil && age < f.ttl {
		doc, err := Parse(cached)
		if err == nil {
			f.logger.Debug().Str("age", age.Round(time.Second).String()).Msg("using cached openapi document")
			return doc, nil
		}
		// Unparseable body is as good as no cache entry at all.
		f.logger.Warn().Str("error", err.Error()).Msg("cached openapi document no longer parses, refetching")
		cached = nil
	}

	body, err := f.fetchWithRetry(ctx)
	if err != nil {
		if cached != nil && age < f.ttl*staleMultiplier {
			f.logger.Warn().
				Str("error", err.Error()).
				Str("age", age.Round(time.Second).String()).
				Msg("openapi fetch failed, falling back to expired cached copy")
			return Parse(cached)
		}
		return nil, err
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}

	f.cache(ctx, body)
	return doc, nil
}

// fetchWithRetry fetches the document with bounded retry. There is no
// exponential backoff; attempt N waits N * fetchRetryDelay.
func (f *Fetcher) fetchWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		body, err := f.fetch(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", f.retries).
			Str("error", err.Error()).
			Msg("openapi fetch failed, retrying")
		if attempt < f.retries {
			select {
			case <-time.After(time.Duration(attempt) * fetchRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch openapi document after %d attempts: %w", f.retries, lastErr)
}

func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.specURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", f.specURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSpecSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read openapi document: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openapi endpoint returned %d", resp.StatusCode)
	}
	return body, nil
}

// cached returns the cached document body and its age, or (nil, 0).
func (f *Fetcher) cached(ctx context.Context) ([]byte, time.Duration) {
	if f.store == nil {
		return nil, 0
	}
	raw, err := f.store.Get(ctx, specCacheKey)
	if err != nil {
		return nil, 0
	}
	var entry cachedDocument
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		f.logger.Warn().Str("error", err.Error()).Msg("discarding corrupt cached openapi document")
		return nil, 0
	}
	return entry.Body, f.now().Sub(entry.FetchedAt)
}

// cache stores a freshly fetched document body. Failures are logged, not fatal.
func (f *Fetcher) cache(ctx context.Context, body []byte) {
	if f.store == nil {
		return
	}
	entry, err := json.Marshal(cachedDocument{FetchedAt: f.now(), Body: body})
	if err != nil {
		return
	}
	if err := f.store.Set(ctx, specCacheKey, string(entry)); err != nil {
		f.logger.Warn().Str("error", err.Error()).Msg("failed to cache openapi document")
	}
}
