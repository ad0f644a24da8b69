package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// FavoriteService manages a user's favorite places
type FavoriteService struct {
	favorites repositories.FavoriteRepository
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(favorites repositories.FavoriteRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

// Add favorites a place and returns the caller's favorite IDs. The place is
// not required to exist.
func (s *FavoriteService) Add(ctx context.Context, caller *entities.Identity, placeID string) ([]string, error) {
	if err := checkFavorite(caller, placeID); err != nil {
		return nil, err
	}
	if err := s.favorites.Add(ctx, caller.UserID, placeID); err != nil {
		return nil, err
	}
	return s.favorites.ListIDs(ctx, caller.UserID)
}

// Remove unfavorites a place and returns the caller's favorite IDs
func (s *FavoriteService) Remove(ctx context.Context, caller *entities.Identity, placeID string) ([]string, error) {
	if err := checkFavorite(caller, placeID); err != nil {
		return nil, err
	}
	if err := s.favorites.Remove(ctx, caller.UserID, placeID); err != nil {
		return nil, err
	}
	return s.favorites.ListIDs(ctx, caller.UserID)
}

// List returns the caller's favorite places that are currently approved
func (s *FavoriteService) List(ctx context.Context, caller *entities.Identity) ([]*entities.Place, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	places, err := s.favorites.ListPlaces(ctx, caller.UserID, ListedStatus)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []*entities.Place{}
	}
	return places, nil
}

func checkFavorite(caller *entities.Identity, placeID string) error {
	if caller == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if _, err := uuid.Parse(placeID); err != nil {
		return apperrors.NewValidationError("invalid place id")
	}
	return nil
}
