package services

import (
	"github.com/spottica/backend/internal/domain/entities"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// ListedStatus is the only status ever returned by collection reads
// (public listing, map feed, favorites)
const ListedStatus = entities.PlaceStatusApproved

// VisibilityPolicy decides who may read, edit and moderate places
type VisibilityPolicy struct{}

// CanView allows approved places to anyone. Other places are visible to
// their author and to admins only.
func (VisibilityPolicy) CanView(place *entities.Place, caller *entities.Identity) error {
	if place.IsApproved() {
		return nil
	}
	if caller == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if caller.IsAdmin() || caller.UserID == place.AuthorID {
		return nil
	}
	return apperrors.NewForbiddenError("not allowed to view this place")
}

// CanModerate allows admins only
func (VisibilityPolicy) CanModerate(caller *entities.Identity) error {
	if caller == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if !caller.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	return nil
}

// CanDeleteReview allows the review author and admins
func (VisibilityPolicy) CanDeleteReview(review *entities.Review, caller *entities.Identity) error {
	if caller == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if caller.IsAdmin() || caller.UserID == review.AuthorID {
		return nil
	}
	return apperrors.NewForbiddenError("not allowed to delete this review")
}

// ValidateStatusChange accepts only moderation decisions
func (VisibilityPolicy) ValidateStatusChange(status entities.PlaceStatus) error {
	if !status.IsModerationDecision() {
		return apperrors.NewValidationError("status must be approved or rejected")
	}
	return nil
}
