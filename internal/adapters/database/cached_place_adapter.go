package database

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
)

// placeByIDTTL is the lifetime of a cached place, in seconds
const placeByIDTTL = 300

// CachedPlaceAdapter wraps a PlaceRepository with a read-through cache of single places.
// Every write that changes a place evicts it, and the cached listings, before returning.
type CachedPlaceAdapter struct {
	repositories.PlaceRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedPlaceAdapter creates a new cached place adapter
func NewCachedPlaceAdapter(adapter repositories.PlaceRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.PlaceRepository {
	return &CachedPlaceAdapter{
		PlaceRepository: adapter,
		cache:           cache,
		metrics:         metrics,
	}
}

// GetByID retrieves a place by ID with caching
func (a *CachedPlaceAdapter) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	key := providers.PlaceCacheKey(id)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var place entities.Place
		if err := json.Unmarshal(cached, &place); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "place")
			return &place, nil
		}
		log.Warn().Err(err).Str("place_id", id).Msg("failed to unmarshal cached place")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "place")

	generation := providers.PlaceCacheGeneration(ctx, a.cache)
	place, err := a.PlaceRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(place); err == nil {
		if err := providers.SetPlaceCacheEntry(ctx, a.cache, generation, key, data, placeByIDTTL); err != nil {
			log.Warn().Err(err).Str("place_id", id).Msg("failed to cache place")
		}
	}

	return place, nil
}

// Create creates a place. New places are pending, so cached listings stay valid.
func (a *CachedPlaceAdapter) Create(ctx context.Context, place *entities.Place) error {
	return a.PlaceRepository.Create(ctx, place)
}

// Update updates a place and evicts it
func (a *CachedPlaceAdapter) Update(ctx context.Context, place *entities.Place) error {
	if err := a.PlaceRepository.Update(ctx, place); err != nil {
		return err
	}
	a.Invalidate(ctx, place.ID)
	return nil
}

// Delete deletes a place and evicts it
func (a *CachedPlaceAdapter) Delete(ctx context.Context, id string) error {
	if err := a.PlaceRepository.Delete(ctx, id); err != nil {
		return err
	}
	a.Invalidate(ctx, id)
	return nil
}

// SetStatus changes the moderation status and evicts the place
func (a *CachedPlaceAdapter) SetStatus(ctx context.Context, id string, status entities.PlaceStatus) (*entities.Place, error) {
	place, err := a.PlaceRepository.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	a.Invalidate(ctx, id)
	return place, nil
}

// RecomputeStats recomputes the derived stats and evicts the place
func (a *CachedPlaceAdapter) RecomputeStats(ctx context.Context, id string) (*entities.PlaceStats, error) {
	stats, err := a.PlaceRepository.RecomputeStats(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Invalidate(ctx, id)
	return stats, nil
}

// Invalidate evicts a place and all cached listings. Failures are logged only.
// The generation moves first so reads already in flight do not refill the cache.
func (a *CachedPlaceAdapter) Invalidate(ctx context.Context, id string) {
	if err := providers.BumpPlaceCacheGeneration(ctx, a.cache); err != nil {
		log.Warn().Err(err).Msg("failed to bump place cache generation")
	}
	if err := a.cache.Delete(ctx, providers.PlaceCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("place_id", id).Msg("failed to invalidate place cache")
	}
	if err := a.cache.DeletePattern(ctx, providers.PlaceListCachePattern); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate place list cache")
	}
}
