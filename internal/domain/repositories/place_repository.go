package repositories

import (
	"context"

	"github.com/spottica/backend/internal/domain/entities"
)

// PlaceRepository defines the interface for place data operations
type PlaceRepository interface {
	// Create creates a new place
	Create(ctx context.Context, place *entities.Place) error

	// GetByID retrieves a place by ID
	GetByID(ctx context.Context, id string) (*entities.Place, error)

	// Update writes the editable fields of a place. Derived stats and status are not touched.
	Update(ctx context.Context, place *entities.Place) error

	// Delete deletes a place and, by cascade, its reviews
	Delete(ctx context.Context, id string) error

	// SetStatus changes the moderation status and returns the updated place
	SetStatus(ctx context.Context, id string, status entities.PlaceStatus) (*entities.Place, error)

	// RecomputeStats recomputes avg rating and review count from the review set
	// in one statement and returns the written values
	RecomputeStats(ctx context.Context, id string) (*entities.PlaceStats, error)

	// List retrieves one page of places and the total count matching the filter
	List(ctx context.Context, filter PlaceFilter) ([]*entities.Place, int, error)

	// ListByIDs retrieves the places among ids that have the given status,
	// in the order of ids. Unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []string, status entities.PlaceStatus) ([]*entities.Place, error)

	// ListByStatus retrieves every place with the given status, oldest first
	ListByStatus(ctx context.Context, status entities.PlaceStatus) ([]*entities.Place, error)

	// ListMap retrieves the lightweight map projection of places with the given status
	ListMap(ctx context.Context, status entities.PlaceStatus) ([]*entities.MapPlace, error)

	// ListIDs returns the IDs of every place
	ListIDs(ctx context.Context) ([]string, error)
}

// PlaceSearchRepository defines the interface for place search operations (e.g. Typesense)
type PlaceSearchRepository interface {
	// Search runs a full-text query and returns one page plus the total match count.
	// Hits mirror the index, which may lag the store.
	Search(ctx context.Context, filter PlaceFilter) ([]*entities.Place, int, error)

	// Index upserts a place document
	Index(ctx context.Context, place *entities.Place) error

	// Delete removes a place from the index
	Delete(ctx context.Context, id string) error
}

// PlaceFilter defines filters for listing places
type PlaceFilter struct {
	Status    entities.PlaceStatus
	Search    string
	MinRating *float64
	Near      *entities.Location
	RadiusKm  float64
	Limit     int
	Offset    int
}
