package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/domain/repositories"
)

// CacheWarmingService preloads the place cache with the newest approved places
type CacheWarmingService struct {
	places repositories.PlaceRepository
	count  int
}

// NewCacheWarmingService creates a new cache warming service. places should
// be the cached repository so that reads populate the cache.
func NewCacheWarmingService(places repositories.PlaceRepository, count int) *CacheWarmingService {
	if count <= 0 {
		count = 50
	}
	return &CacheWarmingService{places: places, count: count}
}

// WarmCache reads the newest approved places by ID. It returns the number
// of places warmed.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	places, _, err := s.places.List(ctx, repositories.PlaceFilter{
		Status: ListedStatus,
		Limit:  s.count,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch places to warm: %w", err)
	}

	warmed := 0
	for _, p := range places {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.places.GetByID(ctx, p.ID); err != nil {
			log.Warn().Err(err).Str("place_id", p.ID).Msg("failed to warm place")
			continue
		}
		warmed++
	}

	log.Info().Int("warmed", warmed).Msg("place cache warmed")
	return warmed, ctx.Err()
}
