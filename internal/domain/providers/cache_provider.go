package providers

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

const (
	// PlaceListCachePrefix prefixes cached public place listings
	PlaceListCachePrefix = "places:list:"

	// PlaceListCachePattern matches every cached public place listing
	PlaceListCachePattern = PlaceListCachePrefix + "*"
)

// PlaceCacheKey returns the cache key of a single place
func PlaceCacheKey(id string) string {
	return "place:" + id
}

const (
	// PlaceCacheGenerationKey holds a token that changes on every place invalidation
	PlaceCacheGenerationKey = "places:generation"

	placeCacheGenerationTTL = 24 * 60 * 60
)

// PlaceCacheGeneration returns the current invalidation token. A missing or
// unreadable token reads as "".
func PlaceCacheGeneration(ctx context.Context, cache CacheProvider) string {
	token, err := cache.Get(ctx, PlaceCacheGenerationKey)
	if err != nil {
		return ""
	}
	return string(token)
}

// BumpPlaceCacheGeneration moves the invalidation token. Call it before
// evicting place keys.
func BumpPlaceCacheGeneration(ctx context.Context, cache CacheProvider) error {
	token := strconv.FormatInt(time.Now().UnixNano(), 36)
	return cache.Set(ctx, PlaceCacheGenerationKey, []byte(token), placeCacheGenerationTTL)
}

// SetPlaceCacheEntry stores a value read while generation was current. When an
// invalidation moved the token in the meantime the entry is dropped instead.
func SetPlaceCacheEntry(ctx context.Context, cache CacheProvider, generation, key string, value []byte, expirationSeconds int) error {
	if PlaceCacheGeneration(ctx, cache) != generation {
		return nil
	}
	if err := cache.Set(ctx, key, value, expirationSeconds); err != nil {
		return err
	}
	if PlaceCacheGeneration(ctx, cache) != generation {
		return cache.Delete(ctx, key)
	}
	return nil
}
