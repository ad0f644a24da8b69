package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spottica/backend/internal/application/loaders"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
	"github.com/spottica/backend/pkg/config"
	apperrors "github.com/spottica/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// maxOffset bounds (page-1)*limit so the listing offset fits every backend
const maxOffset = math.MaxInt32

// CreatePlaceInput is a validated place proposal. Location may be omitted
// when Address can be geocoded.
type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	Location    *entities.Location
}

// UpdatePlaceInput carries the fields of a partial place edit
type UpdatePlaceInput struct {
	Title       *string
	Description *string
	Address     *string
	Location    *entities.Location
}

// ListPlacesQuery is a public listing request. Zero Page and Limit take defaults.
type ListPlacesQuery struct {
	Search    string
	MinRating *float64
	Page      int
	Limit     int
}

// PlaceService handles place proposals, moderation and reads
type PlaceService struct {
	places   repositories.PlaceRepository
	reviews  repositories.ReviewRepository
	users    repositories.UserRepository
	search   repositories.PlaceSearchRepository
	geocoder providers.GeolocationProvider
	eventBus providers.EventBus
	policy   VisibilityPolicy
	cfg      config.SearchConfig
}

// NewPlaceService creates a new place service. search, geocoder and eventBus may be nil.
func NewPlaceService(
	places repositories.PlaceRepository,
	reviews repositories.ReviewRepository,
	users repositories.UserRepository,
	search repositories.PlaceSearchRepository,
	geocoder providers.GeolocationProvider,
	eventBus providers.EventBus,
	cfg config.SearchConfig,
) *PlaceService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 12
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.ProximityRadiusKm <= 0 {
		cfg.ProximityRadiusKm = 25
	}
	return &PlaceService{
		places:   places,
		reviews:  reviews,
		users:    users,
		search:   search,
		geocoder: geocoder,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// Create stores a new pending place authored by the caller
func (s *PlaceService) Create(ctx context.Context, caller *entities.Identity, input CreatePlaceInput) (*entities.Place, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	address := strings.TrimSpace(input.Address)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required")
	}

	location := input.Location
	if location == nil && address != "" && s.geocoder != nil {
		geocoded, err := s.geocoder.Geocode(ctx, address)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
				return nil, apperrors.NewValidationError("address could not be located")
			}
			return nil, err
		}
		location = &entities.Location{
			Longitude: geocoded.Coordinates.Longitude,
			Latitude:  geocoded.Coordinates.Latitude,
		}
	}
	if location == nil {
		return nil, apperrors.NewValidationError("location is required")
	}
	if !location.Valid() {
		return nil, apperrors.NewValidationError("location coordinates are out of range")
	}

	now := time.Now().UTC()
	place := &entities.Place{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Address:     address,
		Location:    *location,
		Status:      entities.PlaceStatusPending,
		AuthorID:    caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.places.Create(ctx, place); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("place_id", place.ID).
		Str("author_id", caller.UserID).
		Msg("place proposed")

	return place, nil
}

// Get returns a place with its reviews, subject to the visibility policy
func (s *PlaceService) Get(ctx context.Context, caller *entities.Identity, id string) (*entities.PlaceDetail, error) {
	ctx, span := observability.StartSpan(ctx, "PlaceService.Get", attribute.String("place.id", id))
	defer span.End()

	place, err := s.getPlace(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanView(place, caller); err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByPlace(ctx, place.ID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	authorIDs := make([]string, len(reviews))
	for i, r := range reviews {
		authorIDs[i] = r.AuthorID
	}
	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.users)
	}
	authors, err := l.LoadAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	detail := &entities.PlaceDetail{
		Place:   place,
		Reviews: make([]*entities.ReviewWithAuthor, len(reviews)),
	}
	for i, r := range reviews {
		detail.Reviews[i] = &entities.ReviewWithAuthor{
			ID:        r.ID,
			PlaceID:   r.PlaceID,
			Author:    authors[i],
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if caller != nil && r.AuthorID == caller.UserID {
			detail.AlreadyReviewed = true
		}
	}

	return detail, nil
}

// Update edits a place. Admin only.
func (s *PlaceService) Update(ctx context.Context, caller *entities.Identity, id string, input UpdatePlaceInput) (*entities.Place, error) {
	if err := s.policy.CanModerate(caller); err != nil {
		return nil, err
	}

	place, err := s.getPlace(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		place.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		place.Description = strings.TrimSpace(*input.Description)
	}
	if input.Address != nil {
		place.Address = strings.TrimSpace(*input.Address)
	}
	if input.Location != nil {
		place.Location = *input.Location
	}
	if place.Title == "" || place.Description == "" {
		return nil, apperrors.NewValidationError("title and description cannot be empty")
	}
	if !place.Location.Valid() {
		return nil, apperrors.NewValidationError("location coordinates are out of range")
	}

	if err := s.places.Update(ctx, place); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, place)
	s.publish(ctx, place.ID, entities.PlaceEventTypeUpdated, nil)
	return place, nil
}

// Delete removes a place and its reviews. Admin only.
func (s *PlaceService) Delete(ctx context.Context, caller *entities.Identity, id string) error {
	if err := s.policy.CanModerate(caller); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFoundError("place not found")
	}

	if err := s.places.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", id).Msg("failed to remove place from index")
		}
	}
	s.publish(ctx, id, entities.PlaceEventTypeDeleted, nil)
	return nil
}

// SetStatus records a moderation decision. Admin only.
func (s *PlaceService) SetStatus(ctx context.Context, caller *entities.Identity, id string, status entities.PlaceStatus) (*entities.Place, error) {
	if err := s.policy.CanModerate(caller); err != nil {
		return nil, err
	}
	if err := s.policy.ValidateStatusChange(status); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFoundError("place not found")
	}

	place, err := s.places.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("place_id", id).
		Str("status", string(status)).
		Str("moderator_id", caller.UserID).
		Msg("place moderated")

	s.syncIndex(ctx, place)
	s.publish(ctx, id, entities.PlaceEventTypeStatusChanged, map[string]interface{}{"status": string(status)})
	return place, nil
}

// List returns one page of approved places. A search that matches no text
// but resolves to a location is answered with places near that location.
func (s *PlaceService) List(ctx context.Context, query ListPlacesQuery) (*entities.PlacePage, error) {
	page, limit, err := s.normalizePaging(query.Page, query.Limit)
	if err != nil {
		return nil, err
	}
	if query.MinRating != nil && !(*query.MinRating >= 0 && *query.MinRating <= entities.MaxRating) {
		return nil, apperrors.NewValidationError("minRating must be between 0 and 5")
	}

	filter := repositories.PlaceFilter{
		Status:    ListedStatus,
		Search:    strings.TrimSpace(query.Search),
		MinRating: query.MinRating,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	ctx, span := observability.StartSpan(ctx, "PlaceService.List", attribute.String("search", filter.Search))
	defer span.End()

	if filter.Search == "" {
		places, total, err := s.places.List(ctx, filter)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		return entities.NewPlacePage(places, page, limit, total), nil
	}

	places, total, err := s.textSearch(ctx, filter)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if total > 0 || s.geocoder == nil {
		return entities.NewPlacePage(places, page, limit, total), nil
	}

	geocoded, err := s.geocoder.Geocode(ctx, filter.Search)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("search", filter.Search).Msg("geocoding fallback failed")
		}
		return entities.NewPlacePage(places, page, limit, total), nil
	}

	filter.Search = ""
	filter.Near = &entities.Location{
		Longitude: geocoded.Coordinates.Longitude,
		Latitude:  geocoded.Coordinates.Latitude,
	}
	filter.RadiusKm = s.cfg.ProximityRadiusKm
	span.SetAttributes(attribute.String("search.mode", "proximity"))

	places, total, err = s.places.List(ctx, filter)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return entities.NewPlacePage(places, page, limit, total), nil
}

// Map returns the lightweight projection of every approved place
func (s *PlaceService) Map(ctx context.Context) ([]*entities.MapPlace, error) {
	places, err := s.places.ListMap(ctx, ListedStatus)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []*entities.MapPlace{}
	}
	return places, nil
}

// Pending returns the moderation queue, oldest first. Admin only.
func (s *PlaceService) Pending(ctx context.Context, caller *entities.Identity) ([]*entities.Place, error) {
	if err := s.policy.CanModerate(caller); err != nil {
		return nil, err
	}
	places, err := s.places.ListByStatus(ctx, entities.PlaceStatusPending)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []*entities.Place{}
	}
	return places, nil
}

// Geocode resolves an address through the configured geocoder
func (s *PlaceService) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	if strings.TrimSpace(address) == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	if s.geocoder == nil {
		return nil, apperrors.NewExternalError("geocoding is not configured", nil)
	}
	return s.geocoder.Geocode(ctx, address)
}

// textSearch prefers the search index and falls back to the database text index
func (s *PlaceService) textSearch(ctx context.Context, filter repositories.PlaceFilter) ([]*entities.Place, int, error) {
	if s.search != nil {
		hits, total, err := s.search.Search(ctx, filter)
		if err == nil {
			return s.loadHits(ctx, filter, hits, total)
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search index query failed, using database")
	}
	return s.places.List(ctx, filter)
}

// loadHits replaces index documents with the stored places, in hit order.
// Hits whose stored status or rating no longer match the filter are dropped
// and taken off the total.
func (s *PlaceService) loadHits(ctx context.Context, filter repositories.PlaceFilter, hits []*entities.Place, total int) ([]*entities.Place, int, error) {
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}

	stored, err := s.places.ListByIDs(ctx, ids, filter.Status)
	if err != nil {
		return nil, 0, err
	}

	places := make([]*entities.Place, 0, len(stored))
	for _, place := range stored {
		if filter.MinRating != nil && place.AvgRating < *filter.MinRating {
			continue
		}
		places = append(places, place)
	}

	if stale := len(hits) - len(places); stale > 0 {
		observability.LoggerFromContext(ctx).Warn().Int("stale", stale).Msg("search index returned stale places")
		total -= stale
	}
	if total < len(places) {
		total = len(places)
	}
	return places, total, nil
}

func (s *PlaceService) normalizePaging(page, limit int) (int, int, error) {
	if page < 0 || limit < 0 {
		return 0, 0, apperrors.NewValidationError("page and limit must be positive")
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	if page-1 > maxOffset/limit {
		return 0, 0, apperrors.NewValidationError("page is too large")
	}
	return page, limit, nil
}

func (s *PlaceService) getPlace(ctx context.Context, id string) (*entities.Place, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	return s.places.GetByID(ctx, id)
}

// syncIndex keeps the search index holding approved places only
func (s *PlaceService) syncIndex(ctx context.Context, place *entities.Place) {
	if s.search == nil {
		return
	}
	var err error
	if place.IsApproved() {
		err = s.search.Index(ctx, place)
	} else {
		err = s.search.Delete(ctx, place.ID)
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", place.ID).Msg("failed to sync place index")
	}
}

func (s *PlaceService) publish(ctx context.Context, placeID string, eventType entities.PlaceEventType, fields map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewPlaceEvent(placeID, eventType, fields)
	if err := s.eventBus.Publish(ctx, providers.EventChannelPlaceUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", placeID).Msg("failed to publish place event")
	}
}
