package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spottica/backend/internal/adapters/cache"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	apperrors "github.com/spottica/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct {
	providers.TokenProvider
}

func (stubTokens) VerifyAccessToken(token string) (*entities.Identity, error) {
	switch token {
	case "user":
		return &entities.Identity{UserID: "u1", Role: entities.RoleUser}, nil
	case "admin":
		return &entities.Identity{UserID: "a1", Role: entities.RoleAdmin}, nil
	}
	return nil, apperrors.NewUnauthorizedError("invalid token")
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if id := IdentityFrom(r.Context()); id != nil {
		w.Write([]byte(id.UserID))
		return
	}
	w.Write([]byte("anonymous"))
}

func serve(h http.HandlerFunc, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestAuth_Optional(t *testing.T) {
	auth := NewAuth(stubTokens{})

	assert.Equal(t, "anonymous", serve(auth.Optional(whoami), "").Body.String())
	assert.Equal(t, "anonymous", serve(auth.Optional(whoami), "bogus").Body.String())
	assert.Equal(t, "u1", serve(auth.Optional(whoami), "user").Body.String())
}

func TestAuth_Require(t *testing.T) {
	auth := NewAuth(stubTokens{})

	rec := serve(auth.Require(whoami), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(auth.Require(whoami), "bogus").Code)
	assert.Equal(t, "u1", serve(auth.Require(whoami), "user").Body.String())
}

func TestAuth_RequireRole(t *testing.T) {
	auth := NewAuth(stubTokens{})
	h := auth.RequireRole(entities.RoleAdmin, whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, "user").Code)
	assert.Equal(t, "a1", serve(h, "admin").Body.String())
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	h := limiter.Limit(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRateLimiter_SweepDropsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.getLimiter("10.0.0.1")

	now = now.Add(visitorIdleTTL + time.Second)
	limiter.sweep()

	assert.Empty(t, limiter.visitors)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestCacheMiddleware(t *testing.T) {
	memory, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	m := NewCacheMiddleware(memory, 60, nil)

	calls := 0
	h := m.Cached(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	})

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, url, nil))
		return rec
	}

	first := get("/api/places?page=1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("/api/places?page=1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"data":[]}`, second.Body.String())
	assert.Equal(t, 1, calls)

	get("/api/places?page=2")
	assert.Equal(t, 2, calls)

	require.NoError(t, memory.DeletePattern(context.Background(), providers.PlaceListCachePattern))
	assert.Equal(t, "MISS", get("/api/places?page=1").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestCacheMiddleware_InvalidatedDuringRequest(t *testing.T) {
	memory, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	m := NewCacheMiddleware(memory, 60, nil)

	invalidate := true
	h := m.Cached(func(w http.ResponseWriter, r *http.Request) {
		if invalidate {
			invalidate = false
			require.NoError(t, providers.BumpPlaceCacheGeneration(r.Context(), memory))
		}
		w.Write([]byte(`{"data":[]}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/places?page=1", nil)
	h(httptest.NewRecorder(), req)

	ok, err := memory.Exists(context.Background(), generateCacheKey(req))
	require.NoError(t, err)
	assert.False(t, ok)

	h(httptest.NewRecorder(), req)
	ok, err = memory.Exists(context.Background(), generateCacheKey(req))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheMiddleware_SkipsErrors(t *testing.T) {
	memory, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	m := NewCacheMiddleware(memory, 60, nil)

	h := m.Cached(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "boom")
	})
	req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
	h(httptest.NewRecorder(), req)

	ok, err := memory.Exists(context.Background(), generateCacheKey(req))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, strings.HasPrefix(generateCacheKey(req), providers.PlaceListCachePrefix))
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://spottica.app/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/places", nil)
	req.Header.Set("Origin", "https://spottica.app")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://spottica.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodGet, "/api/places", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
