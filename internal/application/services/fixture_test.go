package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/pkg/config"
	"github.com/stretchr/testify/require"
)

var madrid = providers.Coordinates{Latitude: 40.4168, Longitude: -3.7038}

type fixture struct {
	store      *memStore
	bus        *recordingBus
	search     *fakeSearch
	geocoder   *fakeGeocoder
	aggregator *services.RatingAggregator
	places     *services.PlaceService
	reviews    *services.ReviewService
	favorites  *services.FavoriteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMemStore(),
		bus:      &recordingBus{},
		search:   newFakeSearch(),
		geocoder: &fakeGeocoder{known: map[string]providers.Coordinates{"madrid": madrid}},
	}
	f.aggregator = services.NewRatingAggregator(f.store.Places(), f.search, f.bus)
	f.places = services.NewPlaceService(
		f.store.Places(), f.store.Reviews(), f.store.Users(), f.search, f.geocoder, f.bus,
		config.SearchConfig{DefaultLimit: 12, MaxLimit: 100, ProximityRadiusKm: 25},
	)
	f.reviews = services.NewReviewService(f.store.Places(), f.store.Reviews(), f.aggregator, nil)
	f.favorites = services.NewFavoriteService(f.store.Favorites())
	return f
}

func (f *fixture) user(t *testing.T, name string, role entities.Role) *entities.Identity {
	t.Helper()
	u := &entities.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@spottica.test",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return &entities.Identity{UserID: u.ID, Role: role, Name: name}
}

func (f *fixture) propose(t *testing.T, author *entities.Identity, title string) *entities.Place {
	t.Helper()
	place, err := f.places.Create(context.Background(), author, services.CreatePlaceInput{
		Title:       title,
		Description: title + " description",
		Location:    &entities.Location{Longitude: madrid.Longitude, Latitude: madrid.Latitude},
	})
	require.NoError(t, err)
	return place
}

func (f *fixture) approved(t *testing.T, author, admin *entities.Identity, title string) *entities.Place {
	t.Helper()
	place := f.propose(t, author, title)
	approved, err := f.places.SetStatus(context.Background(), admin, place.ID, entities.PlaceStatusApproved)
	require.NoError(t, err)
	return approved
}

func (f *fixture) stats(t *testing.T, placeID string) entities.PlaceStats {
	t.Helper()
	p, err := f.store.Places().GetByID(context.Background(), placeID)
	require.NoError(t, err)
	return p.Stats()
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }
