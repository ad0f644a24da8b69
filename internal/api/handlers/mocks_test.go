package handlers_test

import (
	"context"

	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	result, _ := args.Get(0).(*services.AuthResult)
	return result, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*services.AuthResult)
	return result, args.Error(1)
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

type mockPlaceService struct {
	mock.Mock
}

func (m *mockPlaceService) Create(ctx context.Context, caller *entities.Identity, input services.CreatePlaceInput) (*entities.Place, error) {
	args := m.Called(ctx, caller, input)
	place, _ := args.Get(0).(*entities.Place)
	return place, args.Error(1)
}

func (m *mockPlaceService) Get(ctx context.Context, caller *entities.Identity, id string) (*entities.PlaceDetail, error) {
	args := m.Called(ctx, caller, id)
	detail, _ := args.Get(0).(*entities.PlaceDetail)
	return detail, args.Error(1)
}

func (m *mockPlaceService) Update(ctx context.Context, caller *entities.Identity, id string, input services.UpdatePlaceInput) (*entities.Place, error) {
	args := m.Called(ctx, caller, id, input)
	place, _ := args.Get(0).(*entities.Place)
	return place, args.Error(1)
}

func (m *mockPlaceService) Delete(ctx context.Context, caller *entities.Identity, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *mockPlaceService) SetStatus(ctx context.Context, caller *entities.Identity, id string, status entities.PlaceStatus) (*entities.Place, error) {
	args := m.Called(ctx, caller, id, status)
	place, _ := args.Get(0).(*entities.Place)
	return place, args.Error(1)
}

func (m *mockPlaceService) List(ctx context.Context, query services.ListPlacesQuery) (*entities.PlacePage, error) {
	args := m.Called(ctx, query)
	page, _ := args.Get(0).(*entities.PlacePage)
	return page, args.Error(1)
}

func (m *mockPlaceService) Map(ctx context.Context) ([]*entities.MapPlace, error) {
	args := m.Called(ctx)
	places, _ := args.Get(0).([]*entities.MapPlace)
	return places, args.Error(1)
}

func (m *mockPlaceService) Pending(ctx context.Context, caller *entities.Identity) ([]*entities.Place, error) {
	args := m.Called(ctx, caller)
	places, _ := args.Get(0).([]*entities.Place)
	return places, args.Error(1)
}

type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) Create(ctx context.Context, caller *entities.Identity, input services.CreateReviewInput) (*entities.ReviewResult, error) {
	args := m.Called(ctx, caller, input)
	result, _ := args.Get(0).(*entities.ReviewResult)
	return result, args.Error(1)
}

func (m *mockReviewService) Update(ctx context.Context, caller *entities.Identity, reviewID string, input services.UpdateReviewInput) (*entities.ReviewResult, error) {
	args := m.Called(ctx, caller, reviewID, input)
	result, _ := args.Get(0).(*entities.ReviewResult)
	return result, args.Error(1)
}

func (m *mockReviewService) Delete(ctx context.Context, caller *entities.Identity, reviewID string) error {
	return m.Called(ctx, caller, reviewID).Error(0)
}

type mockFavoriteService struct {
	mock.Mock
}

func (m *mockFavoriteService) Add(ctx context.Context, caller *entities.Identity, placeID string) ([]string, error) {
	args := m.Called(ctx, caller, placeID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockFavoriteService) Remove(ctx context.Context, caller *entities.Identity, placeID string) ([]string, error) {
	args := m.Called(ctx, caller, placeID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockFavoriteService) List(ctx context.Context, caller *entities.Identity) ([]*entities.Place, error) {
	args := m.Called(ctx, caller)
	places, _ := args.Get(0).([]*entities.Place)
	return places, args.Error(1)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	args := m.Called(ctx, address)
	result, _ := args.Get(0).(*providers.GeocodedAddress)
	return result, args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
