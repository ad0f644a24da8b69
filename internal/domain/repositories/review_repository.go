package repositories

import (
	"context"

	"github.com/spottica/backend/internal/domain/entities"
)

// ReviewRepository defines the interface for review operations
type ReviewRepository interface {
	// Create inserts a review. A second review by the same author on the same
	// place fails with a conflict error and writes nothing.
	Create(ctx context.Context, review *entities.Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id string) (*entities.Review, error)

	// Update writes rating and comment of an existing review
	Update(ctx context.Context, review *entities.Review) error

	// Delete deletes a review
	Delete(ctx context.Context, id string) error

	// ListByPlace retrieves reviews for a place, newest first
	ListByPlace(ctx context.Context, placeID string) ([]*entities.Review, error)
}
