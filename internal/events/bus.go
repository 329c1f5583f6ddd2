package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Filter selects the events a subscriber receives. A nil Filter accepts everything.
type Filter func(Event) bool

type subscription struct {
	ch     chan Event
	filter Filter
}

// Bus fans events out to in-process subscribers. Delivery never blocks the emitter: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscription
	nextID  uint64
	dropped atomic.Uint64
	log     zerolog.Logger
}

// NewBus creates an empty bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[uint64]*subscription),
		log:  log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it and closes the
// channel; calling it more than once is safe.
func (b *Bus) Subscribe(filter Filter, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscription{ch: make(chan Event, buffer), filter: filter}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Emit publishes an event to every matching subscriber
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			b.log.Warn().Str("event_type", string(eventType)).Msg("Subscriber buffer full, event dropped")
		}
	}
}

// Subscribers returns the number of active subscribers
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
