package events

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/domain/entities"
)

const subscriberBuffer = 100

// fanout tracks local subscribers per channel and delivers events to them.
// Delivery never blocks: a full subscriber drops the event.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.PlaceEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.PlaceEvent]struct{})}
}

func (f *fanout) add(channel string) (chan *entities.PlaceEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.PlaceEvent]struct{})
	}
	ch := make(chan *entities.PlaceEvent, subscriberBuffer)
	f.subscribers[channel][ch] = struct{}{}
	return ch, len(f.subscribers[channel])
}

// remove closes ch and reports whether channel has no subscribers left
func (f *fanout) remove(channel string, ch chan *entities.PlaceEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}
	delete(subs, ch)
	close(ch)

	if len(subs) == 0 {
		delete(f.subscribers, channel)
		return true
	}
	return false
}

func (f *fanout) broadcast(channel string, event *entities.PlaceEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, dropping event")
		}
	}
}

func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers[channel] {
		close(ch)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for channel, subs := range f.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(f.subscribers, channel)
	}
}
