package handlers

import (
	"context"
	"net/http"

	"github.com/spottica/backend/internal/api/middleware"
	"github.com/spottica/backend/internal/domain/entities"
)

// FavoriteService defines the favorites operations used by the handler
type FavoriteService interface {
	Add(ctx context.Context, caller *entities.Identity, placeID string) ([]string, error)
	Remove(ctx context.Context, caller *entities.Identity, placeID string) ([]string, error)
	List(ctx context.Context, caller *entities.Identity) ([]*entities.Place, error)
}

// FavoriteHandler handles the caller's favorite places
type FavoriteHandler struct {
	service FavoriteService
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(service FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// AddFavorite handles POST /api/users/me/favorites/{placeId}
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Add(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("placeId"))
	h.respondIDs(w, r, ids, err)
}

// RemoveFavorite handles DELETE /api/users/me/favorites/{placeId}
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Remove(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("placeId"))
	h.respondIDs(w, r, ids, err)
}

func (h *FavoriteHandler) respondIDs(w http.ResponseWriter, r *http.Request, ids []string, err error) {
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"favorites": ids})
}

// ListFavorites handles GET /api/users/me/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	places, err := h.service.List(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if places == nil {
		places = []*entities.Place{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": places})
}
