package repositories

import (
	"context"

	"github.com/spottica/backend/internal/domain/entities"
)

// FavoriteRepository defines the user to place favorites relation
type FavoriteRepository interface {
	// Add inserts the pair, doing nothing if it already exists
	Add(ctx context.Context, userID, placeID string) error

	// Remove deletes the pair, doing nothing if it is absent
	Remove(ctx context.Context, userID, placeID string) error

	// ListIDs returns the favorite place IDs of a user
	ListIDs(ctx context.Context, userID string) ([]string, error)

	// ListPlaces returns the user's favorite places that currently have the given status
	ListPlaces(ctx context.Context, userID string, status entities.PlaceStatus) ([]*entities.Place, error)
}
