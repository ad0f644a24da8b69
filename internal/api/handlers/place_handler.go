package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/spottica/backend/internal/api/middleware"
	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/entities"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// PlaceService defines the place operations used by the handler
type PlaceService interface {
	Create(ctx context.Context, caller *entities.Identity, input services.CreatePlaceInput) (*entities.Place, error)
	Get(ctx context.Context, caller *entities.Identity, id string) (*entities.PlaceDetail, error)
	Update(ctx context.Context, caller *entities.Identity, id string, input services.UpdatePlaceInput) (*entities.Place, error)
	Delete(ctx context.Context, caller *entities.Identity, id string) error
	SetStatus(ctx context.Context, caller *entities.Identity, id string, status entities.PlaceStatus) (*entities.Place, error)
	List(ctx context.Context, query services.ListPlacesQuery) (*entities.PlacePage, error)
	Map(ctx context.Context) ([]*entities.MapPlace, error)
	Pending(ctx context.Context, caller *entities.Identity) ([]*entities.Place, error)
}

// PlaceHandler handles place HTTP requests
type PlaceHandler struct {
	service PlaceService
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(service PlaceService) *PlaceHandler {
	return &PlaceHandler{service: service}
}

// geoPoint is the GeoJSON point shape clients send: coordinates are [lng, lat]
type geoPoint struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates"`
}

func (p *geoPoint) location() (*entities.Location, error) {
	if p == nil {
		return nil, nil
	}
	if len(p.Coordinates) != 2 {
		return nil, apperrors.NewValidationError("location.coordinates must be [longitude, latitude]")
	}
	return &entities.Location{Longitude: p.Coordinates[0], Latitude: p.Coordinates[1]}, nil
}

type createPlaceRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Location    *geoPoint `json:"location"`
}

type updatePlaceRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Address     *string   `json:"address"`
	Location    *geoPoint `json:"location"`
}

// ListPlaces handles GET /api/places
func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	page, err := h.service.List(r.Context(), query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func parseListQuery(r *http.Request) (services.ListPlacesQuery, error) {
	params := r.URL.Query()
	query := services.ListPlacesQuery{Search: params.Get("search")}

	var err error
	if query.Page, err = intParam(params.Get("page"), "page"); err != nil {
		return query, err
	}
	if query.Limit, err = intParam(params.Get("limit"), "limit"); err != nil {
		return query, err
	}
	if raw := params.Get("minRating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(minRating) || math.IsInf(minRating, 0) {
			return query, apperrors.NewValidationError("minRating must be a number")
		}
		query.MinRating = &minRating
	}
	return query, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name + " must be an integer")
	}
	return n, nil
}

// MapPlaces handles GET /api/places/map
func (h *PlaceHandler) MapPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.service.Map(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if places == nil {
		places = []*entities.MapPlace{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": places})
}

// GetPlace handles GET /api/places/{id}
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// CreatePlace handles POST /api/places
func (h *PlaceHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	location, err := req.Location.location()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	place, err := h.service.Create(r.Context(), middleware.IdentityFrom(r.Context()), services.CreatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Location:    location,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"place": place})
}

// UpdatePlace handles PATCH /api/places/{id}
func (h *PlaceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	var req updatePlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	location, err := req.Location.location()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	place, err := h.service.Update(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), services.UpdatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Location:    location,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"place": place})
}

// DeletePlace handles DELETE /api/places/{id}
func (h *PlaceHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus handles PATCH /api/places/{id}/status
func (h *PlaceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status entities.PlaceStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	place, err := h.service.SetStatus(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), req.Status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"place": place})
}

// PendingPlaces handles GET /api/admin/places/pending
func (h *PlaceHandler) PendingPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.service.Pending(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if places == nil {
		places = []*entities.Place{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": places})
}
