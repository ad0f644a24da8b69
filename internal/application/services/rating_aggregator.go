package services

import (
	"context"

	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
	apperrors "github.com/spottica/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// RatingAggregator keeps a place's avg rating and review count equal to the
// mean and count of its reviews
type RatingAggregator struct {
	places   repositories.PlaceRepository
	search   repositories.PlaceSearchRepository
	eventBus providers.EventBus
}

// NewRatingAggregator creates a new aggregator. search and eventBus may be nil.
func NewRatingAggregator(places repositories.PlaceRepository, search repositories.PlaceSearchRepository, eventBus providers.EventBus) *RatingAggregator {
	return &RatingAggregator{places: places, search: search, eventBus: eventBus}
}

// RecomputeStats recomputes the stats of placeID from its review set and
// returns the written values. A place that no longer exists yields nil, nil.
func (a *RatingAggregator) RecomputeStats(ctx context.Context, placeID string) (*entities.PlaceStats, error) {
	ctx, span := observability.StartSpan(ctx, "RatingAggregator.RecomputeStats", attribute.String("place.id", placeID))
	defer span.End()

	stats, err := a.places.RecomputeStats(ctx, placeID)
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		observability.LoggerFromContext(ctx).Debug().Str("place_id", placeID).Msg("place gone before stats recompute")
		return nil, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	a.publish(ctx, placeID, stats)
	a.reindex(ctx, placeID)

	return stats, nil
}

func (a *RatingAggregator) publish(ctx context.Context, placeID string, stats *entities.PlaceStats) {
	if a.eventBus == nil {
		return
	}
	event := entities.NewPlaceEvent(placeID, entities.PlaceEventTypeStatsUpdated, map[string]interface{}{
		"avgRating":    stats.AvgRating,
		"reviewsCount": stats.ReviewsCount,
	})
	if err := a.eventBus.Publish(ctx, providers.EventChannelPlaceUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", placeID).Msg("failed to publish stats event")
	}
}

func (a *RatingAggregator) reindex(ctx context.Context, placeID string) {
	if a.search == nil {
		return
	}
	place, err := a.places.GetByID(ctx, placeID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", placeID).Msg("failed to load place for reindex")
		return
	}
	if !place.IsApproved() {
		return
	}
	if err := a.search.Index(ctx, place); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", placeID).Msg("failed to reindex place")
	}
}
