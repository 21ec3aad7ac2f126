package service

import "sync"

// Event actions published by the map view.
const (
	ActionPopulated = "populated"
	ActionFailed    = "failed"
	ActionShown     = "shown"
	ActionHidden    = "hidden"
	ActionSelected  = "selected"
)

// Event resources.
const (
	ResourceOverlay = "overlay"
	ResourceBase    = "base"
)

// Event represents a change in the map view.
type Event struct {
	Resource string // "overlay" or "base"
	Action   string // "populated", "failed", "shown", "hidden", "selected"
	ID       string // layer name
}

// EventBus is a simple fan-out pub/sub for map view events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
