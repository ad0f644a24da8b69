package events

import (
	"context"
	"sync"

	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
)

// MemoryEventBus delivers place events within a single process. It backs the
// API when Redis is not configured.
type MemoryEventBus struct {
	local *fanout
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{local: newFanout(), done: make(chan struct{})}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers the event to the channel's current subscribers
func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.PlaceEvent) error {
	select {
	case <-b.done:
		return nil
	default:
	}
	b.local.broadcast(channel, event)
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done or the bus is closed
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PlaceEvent, error) {
	ch, _ := b.local.add(channel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
			b.local.remove(channel, ch)
		case <-b.done:
		}
	}()

	return ch, nil
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.local.closeChannel(channel)
	return nil
}

// Close stops delivery and closes all subscriber channels
func (b *MemoryEventBus) Close() error {
	b.once.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.local.closeAll()
	})
	return nil
}
