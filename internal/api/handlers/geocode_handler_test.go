package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spottica/backend/internal/api/handlers"
	"github.com/spottica/backend/internal/domain/providers"
	apperrors "github.com/spottica/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGeocodeHandler(t *testing.T) {
	geocoder := new(mockGeocoder)
	handler := handlers.NewGeocodeHandler(geocoder)
	geocoder.On("Geocode", mock.Anything, "Madrid").Return(&providers.GeocodedAddress{
		FormattedAddress: "Madrid, Spain",
		Coordinates:      providers.Coordinates{Latitude: 40.4168, Longitude: -3.7038},
	}, nil)
	geocoder.On("Geocode", mock.Anything, "Atlantis").Return(nil, apperrors.NewExternalError("geocoding service unavailable", errors.New("circuit breaker is open")))

	w := httptest.NewRecorder()
	handler.Geocode(w, newRequest(http.MethodGet, "/api/geocode?address=Madrid", "", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Madrid, Spain", decodeBody(t, w)["formatted_address"])

	w = httptest.NewRecorder()
	handler.Geocode(w, newRequest(http.MethodGet, "/api/geocode?address=Atlantis", "", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = httptest.NewRecorder()
	handler.Geocode(w, newRequest(http.MethodGet, "/api/geocode", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewHealthHandler(stubPinger{}).Health(w, newRequest(http.MethodGet, "/health", "", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handlers.NewHealthHandler(stubPinger{err: errors.New("dial tcp: refused")}).Health(w, newRequest(http.MethodGet, "/health", "", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
