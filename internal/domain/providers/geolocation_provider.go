package providers

import (
	"context"
)

// GeolocationProvider defines the interface for geolocation services
type GeolocationProvider interface {
	// Geocode converts an address to coordinates. An address the service
	// cannot resolve fails with a not-found error.
	Geocode(ctx context.Context, address string) (*GeocodedAddress, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodedAddress represents a geocoded address
type GeocodedAddress struct {
	FormattedAddress string      `json:"formatted_address"`
	City             string      `json:"city,omitempty"`
	State            string      `json:"state,omitempty"`
	Country          string      `json:"country,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
}
