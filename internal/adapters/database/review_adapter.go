package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/spottica/backend/pkg/errors"
)

var reviewColumns = []interface{}{
	"id", "place_id", "author_id", "rating", "comment", "created_at", "updated_at",
}

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func reviewNotFound(id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
}

// Create inserts a review. The (place_id, author_id) unique constraint is the
// only guard against duplicates, so concurrent creates cannot both succeed.
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	query, args, err := a.db.Insert("reviews").Rows(goqu.Record{
		"id":         review.ID,
		"place_id":   review.PlaceID,
		"author_id":  review.AuthorID,
		"rating":     review.Rating,
		"comment":    review.Comment,
		"created_at": review.CreatedAt,
		"updated_at": review.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.NewConflictError("already reviewed this place")
		case isForeignKeyViolation(err), isInvalidID(err):
			return placeNotFound(review.PlaceID)
		}
		return apperrors.NewInternalError("failed to create review", err)
	}

	return nil
}

// GetByID retrieves a review by ID
func (a *ReviewAdapter) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	query, args, err := a.db.From("reviews").Select(reviewColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	review := &entities.Review{}
	err = a.client.DB().GetContext(ctx, review, query, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, reviewNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review", err)
	}

	return review, nil
}

// Update writes rating and comment
func (a *ReviewAdapter) Update(ctx context.Context, review *entities.Review) error {
	review.UpdatedAt = time.Now().UTC()

	query, args, err := a.db.Update("reviews").
		Set(goqu.Record{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": review.UpdatedAt,
		}).
		Where(goqu.Ex{"id": review.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if isInvalidID(err) {
		return reviewNotFound(review.ID)
	}
	if err != nil {
		return apperrors.NewInternalError("failed to update review", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return reviewNotFound(review.ID)
	}

	return nil
}

// Delete deletes a review
func (a *ReviewAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("reviews").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if isInvalidID(err) {
		return reviewNotFound(id)
	}
	if err != nil {
		return apperrors.NewInternalError("failed to delete review", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return reviewNotFound(id)
	}

	return nil
}

// ListByPlace retrieves reviews for a place, newest first
func (a *ReviewAdapter) ListByPlace(ctx context.Context, placeID string) ([]*entities.Review, error) {
	query, args, err := a.db.From("reviews").
		Select(reviewColumns...).
		Where(goqu.Ex{"place_id": placeID}).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	reviews := []*entities.Review{}
	if err := a.client.DB().SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}

	return reviews, nil
}
