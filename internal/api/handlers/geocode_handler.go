package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/spottica/backend/internal/domain/providers"
)

// Geocoder resolves free-text addresses
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error)
}

// GeocodeHandler exposes address lookup to the place proposal form
type GeocodeHandler struct {
	geocoder Geocoder
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(geocoder Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Geocode handles GET /api/geocode?address=
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	result, err := h.geocoder.Geocode(r.Context(), address)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
