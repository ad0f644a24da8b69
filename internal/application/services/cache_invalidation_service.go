package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
)

// CacheInvalidationService evicts cached places when place events arrive.
// Writers evict their own instance's cache synchronously; this service
// keeps the caches of other instances sharing the event bus consistent.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelPlaceUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to place updates: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.PlaceEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.PlaceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("place_id", event.PlaceID).
		Str("event_type", string(event.EventType)).
		Msg("processing cache invalidation")

	if err := s.InvalidatePlace(ctx, event.PlaceID); err != nil {
		log.Warn().Err(err).Str("place_id", event.PlaceID).Msg("failed to invalidate place cache")
	}
}

// InvalidatePlace evicts a place and every cached listing
func (s *CacheInvalidationService) InvalidatePlace(ctx context.Context, placeID string) error {
	if err := providers.BumpPlaceCacheGeneration(ctx, s.cache); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	if err := s.cache.Delete(ctx, providers.PlaceCacheKey(placeID)); err != nil {
		return fmt.Errorf("failed to invalidate place %s: %w", placeID, err)
	}
	return s.evictListings(ctx)
}

// InvalidateListings evicts every cached public listing
func (s *CacheInvalidationService) InvalidateListings(ctx context.Context) error {
	if err := providers.BumpPlaceCacheGeneration(ctx, s.cache); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return s.evictListings(ctx)
}

func (s *CacheInvalidationService) evictListings(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, providers.PlaceListCachePattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", providers.PlaceListCachePattern, err)
	}
	return nil
}
