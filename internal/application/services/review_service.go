package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
	apperrors "github.com/spottica/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// CreateReviewInput is a validated review submission
type CreateReviewInput struct {
	PlaceID string
	Rating  int
	Comment string
}

// UpdateReviewInput carries the fields of a partial review edit
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// ReviewService handles the review lifecycle. Every mutation recomputes the
// parent place's stats before returning.
type ReviewService struct {
	places     repositories.PlaceRepository
	reviews    repositories.ReviewRepository
	aggregator *RatingAggregator
	policy     VisibilityPolicy
	metrics    *observability.Metrics
}

// NewReviewService creates a new review service
func NewReviewService(
	places repositories.PlaceRepository,
	reviews repositories.ReviewRepository,
	aggregator *RatingAggregator,
	metrics *observability.Metrics,
) *ReviewService {
	return &ReviewService{
		places:     places,
		reviews:    reviews,
		aggregator: aggregator,
		metrics:    metrics,
	}
}

func validateRating(rating int) error {
	if !entities.ValidRating(rating) {
		return apperrors.NewValidationError("rating must be an integer between 1 and 5")
	}
	return nil
}

// Create stores the caller's review of a place. A second review of the same
// place by the same caller fails with a conflict.
func (s *ReviewService) Create(ctx context.Context, caller *entities.Identity, input CreateReviewInput) (*entities.ReviewResult, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	input.PlaceID = strings.TrimSpace(input.PlaceID)
	if input.PlaceID == "" {
		return nil, apperrors.NewValidationError("place is required")
	}
	if _, err := uuid.Parse(input.PlaceID); err != nil {
		return nil, apperrors.NewValidationError("invalid place id")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "ReviewService.Create", attribute.String("place.id", input.PlaceID))
	defer span.End()

	place, err := s.places.GetByID(ctx, input.PlaceID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanView(place, caller); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &entities.Review{
		ID:        uuid.NewString(),
		PlaceID:   place.ID,
		AuthorID:  caller.UserID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordReviewMutation(ctx, s.metrics, "create")

	return s.result(ctx, review)
}

// Update edits the caller's own review. Reviews of other users are reported
// as not found.
func (s *ReviewService) Update(ctx context.Context, caller *entities.Identity, reviewID string, input UpdateReviewInput) (*entities.ReviewResult, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
	}

	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != caller.UserID {
		return nil, apperrors.NewNotFoundError("review not found")
	}

	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = strings.TrimSpace(*input.Comment)
	}
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	observability.RecordReviewMutation(ctx, s.metrics, "update")

	return s.result(ctx, review)
}

// Delete removes a review. Its author and admins may delete it.
func (s *ReviewService) Delete(ctx context.Context, caller *entities.Identity, reviewID string) error {
	if caller == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}

	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if err := s.policy.CanDeleteReview(review, caller); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return err
	}
	observability.RecordReviewMutation(ctx, s.metrics, "delete")

	_, err = s.aggregator.RecomputeStats(ctx, review.PlaceID)
	return err
}

func (s *ReviewService) getReview(ctx context.Context, reviewID string) (*entities.Review, error) {
	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, apperrors.NewNotFoundError("review not found")
	}
	return s.reviews.GetByID(ctx, reviewID)
}

func (s *ReviewService) result(ctx context.Context, review *entities.Review) (*entities.ReviewResult, error) {
	stats, err := s.aggregator.RecomputeStats(ctx, review.PlaceID)
	if err != nil {
		return nil, err
	}

	result := &entities.ReviewResult{Review: review}
	if stats != nil {
		result.Place = *stats
	}
	return result, nil
}
