package database

import (
	"context"
	"testing"

	"github.com/spottica/backend/internal/adapters/cache"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) Create(ctx context.Context, place *entities.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *MockPlaceRepository) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

func (m *MockPlaceRepository) Update(ctx context.Context, place *entities.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *MockPlaceRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPlaceRepository) SetStatus(ctx context.Context, id string, status entities.PlaceStatus) (*entities.Place, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

func (m *MockPlaceRepository) RecomputeStats(ctx context.Context, id string) (*entities.PlaceStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlaceStats), args.Error(1)
}

func (m *MockPlaceRepository) List(ctx context.Context, filter repositories.PlaceFilter) ([]*entities.Place, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*entities.Place), args.Int(1), args.Error(2)
}

func (m *MockPlaceRepository) ListByStatus(ctx context.Context, status entities.PlaceStatus) ([]*entities.Place, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]*entities.Place), args.Error(1)
}

func (m *MockPlaceRepository) ListByIDs(ctx context.Context, ids []string, status entities.PlaceStatus) ([]*entities.Place, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).([]*entities.Place), args.Error(1)
}

func (m *MockPlaceRepository) ListMap(ctx context.Context, status entities.PlaceStatus) ([]*entities.MapPlace, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]*entities.MapPlace), args.Error(1)
}

func (m *MockPlaceRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func newCachedAdapter(t *testing.T) (*MockPlaceRepository, providers.CacheProvider, repositories.PlaceRepository) {
	t.Helper()
	inner := &MockPlaceRepository{}
	memory, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	return inner, memory, NewCachedPlaceAdapter(inner, memory, nil)
}

func TestCachedPlaceAdapter_GetByID_ReadThrough(t *testing.T) {
	inner, _, adapter := newCachedAdapter(t)
	ctx := context.Background()

	inner.On("GetByID", ctx, "p1").Return(&entities.Place{ID: "p1", Title: "Retiro", Status: entities.PlaceStatusApproved}, nil).Once()

	first, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)
	second, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, "Retiro", first.Title)
	assert.Equal(t, first.Status, second.Status)
	inner.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCachedPlaceAdapter_SetStatusEvicts(t *testing.T) {
	inner, memory, adapter := newCachedAdapter(t)
	ctx := context.Background()

	inner.On("GetByID", ctx, "p1").Return(&entities.Place{ID: "p1", Status: entities.PlaceStatusPending}, nil).Once()
	inner.On("SetStatus", ctx, "p1", entities.PlaceStatusApproved).Return(&entities.Place{ID: "p1", Status: entities.PlaceStatusApproved}, nil)
	inner.On("GetByID", ctx, "p1").Return(&entities.Place{ID: "p1", Status: entities.PlaceStatusApproved}, nil).Once()

	require.NoError(t, memory.Set(ctx, providers.PlaceListCachePrefix+"page=1", []byte("[]"), 60))

	_, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)
	_, err = adapter.SetStatus(ctx, "p1", entities.PlaceStatusApproved)
	require.NoError(t, err)

	place, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, place.IsApproved())

	listed, _ := memory.Exists(ctx, providers.PlaceListCachePrefix+"page=1")
	assert.False(t, listed)
	inner.AssertExpectations(t)
}

func TestCachedPlaceAdapter_GetByID_InvalidatedDuringRead(t *testing.T) {
	inner, memory, adapter := newCachedAdapter(t)
	ctx := context.Background()

	inner.On("GetByID", ctx, "p1").
		Run(func(mock.Arguments) {
			adapter.(*CachedPlaceAdapter).Invalidate(ctx, "p1")
		}).
		Return(&entities.Place{ID: "p1", Status: entities.PlaceStatusApproved}, nil).Once()
	inner.On("GetByID", ctx, "p1").
		Return(&entities.Place{ID: "p1", Status: entities.PlaceStatusRejected}, nil).Once()

	_, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)

	cached, _ := memory.Exists(ctx, providers.PlaceCacheKey("p1"))
	assert.False(t, cached)

	place, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, entities.PlaceStatusRejected, place.Status)
	inner.AssertExpectations(t)
}

func TestCachedPlaceAdapter_RecomputeStatsEvicts(t *testing.T) {
	inner, memory, adapter := newCachedAdapter(t)
	ctx := context.Background()

	require.NoError(t, memory.Set(ctx, providers.PlaceCacheKey("p1"), []byte(`{"id":"p1","avgRating":5}`), 60))
	inner.On("RecomputeStats", ctx, "p1").Return(&entities.PlaceStats{AvgRating: 3, ReviewsCount: 2}, nil)

	stats, err := adapter.RecomputeStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, stats.AvgRating)

	cached, _ := memory.Exists(ctx, providers.PlaceCacheKey("p1"))
	assert.False(t, cached)
}

func TestCachedPlaceAdapter_ListPassesThrough(t *testing.T) {
	inner, _, adapter := newCachedAdapter(t)
	ctx := context.Background()
	filter := repositories.PlaceFilter{Status: entities.PlaceStatusApproved, Limit: 12}

	inner.On("List", ctx, filter).Return([]*entities.Place{{ID: "p1"}}, 1, nil)

	places, total, err := adapter.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, places, 1)
}
