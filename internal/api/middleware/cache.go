package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/infrastructure/observability"
)

// DefaultListCacheTTL is the lifetime of a cached public listing, in seconds
const DefaultListCacheTTL = 60

// CacheMiddleware caches anonymous public listing responses. Entries live
// under providers.PlaceListCachePrefix so place writes can evict them all.
type CacheMiddleware struct {
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *CacheMiddleware {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultListCacheTTL
	}
	return &CacheMiddleware{cache: cache, ttlSeconds: ttlSeconds, metrics: metrics}
}

// Cached wraps a GET listing handler
func (m *CacheMiddleware) Cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.cache == nil || r.Method != http.MethodGet {
			next(w, r)
			return
		}

		ctx := r.Context()
		cacheKey := generateCacheKey(r)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, "http")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
		observability.RecordCacheMiss(ctx, m.metrics, "http")

		w.Header().Set("X-Cache", "MISS")
		generation := providers.PlaceCacheGeneration(ctx, m.cache)
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := providers.SetPlaceCacheEntry(ctx, m.cache, generation, cacheKey, recorder.body.Bytes(), m.ttlSeconds); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			}
		}
	}
}

// generateCacheKey hashes method, path and raw query
func generateCacheKey(r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return providers.PlaceListCachePrefix + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
