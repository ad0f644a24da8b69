package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/spottica/backend/internal/domain/providers"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// MockGeolocationProvider resolves a fixed set of city names. It is the
// default provider in development and tests.
type MockGeolocationProvider struct {
	cities map[string]providers.GeocodedAddress
}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.GeolocationProvider {
	cities := map[string]providers.Coordinates{
		"madrid":    {Latitude: 40.4168, Longitude: -3.7038},
		"barcelona": {Latitude: 41.3874, Longitude: 2.1686},
		"valencia":  {Latitude: 39.4699, Longitude: -0.3763},
		"sevilla":   {Latitude: 37.3891, Longitude: -5.9845},
		"bilbao":    {Latitude: 43.2630, Longitude: -2.9350},
		"malaga":    {Latitude: 36.7213, Longitude: -4.4214},
		"zaragoza":  {Latitude: 41.6488, Longitude: -0.8891},
	}

	m := &MockGeolocationProvider{cities: make(map[string]providers.GeocodedAddress, len(cities))}
	for name, coords := range cities {
		m.cities[name] = providers.GeocodedAddress{
			FormattedAddress: strings.ToUpper(name[:1]) + name[1:] + ", Spain",
			City:             strings.ToUpper(name[:1]) + name[1:],
			Country:          "Spain",
			Coordinates:      coords,
		}
	}
	return m
}

// Geocode returns the first known city contained in address
func (m *MockGeolocationProvider) Geocode(_ context.Context, address string) (*providers.GeocodedAddress, error) {
	normalized := strings.ToLower(strings.TrimSpace(address))
	if normalized == "" {
		return nil, apperrors.NewValidationError("address is required")
	}

	for name, addr := range m.cities {
		if strings.Contains(normalized, name) {
			result := addr
			return &result, nil
		}
	}

	return nil, apperrors.NewNotFoundError(fmt.Sprintf("no location found for %q", address))
}
