package services

import (
	"context"
	"fmt"

	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
)

// IndexerService rebuilds the search index from the database
type IndexerService struct {
	places repositories.PlaceRepository
	search repositories.PlaceSearchRepository
}

// NewIndexerService creates a new indexer service
func NewIndexerService(places repositories.PlaceRepository, search repositories.PlaceSearchRepository) *IndexerService {
	return &IndexerService{places: places, search: search}
}

// Reindex upserts every listed place and returns how many were written.
// Unlisted places never reach the index.
func (s *IndexerService) Reindex(ctx context.Context) (int, error) {
	places, err := s.places.ListByStatus(ctx, ListedStatus)
	if err != nil {
		return 0, fmt.Errorf("failed to list places: %w", err)
	}

	logger := observability.LoggerFromContext(ctx)
	indexed, failed := 0, 0
	for _, place := range places {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := s.search.Index(ctx, place); err != nil {
			failed++
			logger.Warn().Err(err).Str("place_id", place.ID).Msg("failed to index place")
			continue
		}
		indexed++
	}
	if failed > 0 {
		return indexed, fmt.Errorf("%d of %d places failed to index", failed, len(places))
	}
	return indexed, nil
}
