package handlers

import (
	"context"
	"net/http"

	"github.com/spottica/backend/internal/api/middleware"
	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/entities"
)

// ReviewService defines the review operations used by the handler
type ReviewService interface {
	Create(ctx context.Context, caller *entities.Identity, input services.CreateReviewInput) (*entities.ReviewResult, error)
	Update(ctx context.Context, caller *entities.Identity, reviewID string, input services.UpdateReviewInput) (*entities.ReviewResult, error)
	Delete(ctx context.Context, caller *entities.Identity, reviewID string) error
}

// ReviewHandler handles review HTTP requests
type ReviewHandler struct {
	service ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type createReviewRequest struct {
	Place   string `json:"place"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /api/places/{id}/reviews and POST /api/reviews.
// The path id wins over a place given in the body.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if id := r.PathValue("id"); id != "" {
		req.Place = id
	}

	result, err := h.service.Create(r.Context(), middleware.IdentityFrom(r.Context()), services.CreateReviewInput{
		PlaceID: req.Place,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// UpdateReview handles PATCH /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.Update(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), services.UpdateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
