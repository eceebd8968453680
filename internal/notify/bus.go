package notify

import (
	"sync"

	"trigger-trading-bot/internal/metrics"
)

// Observer receives events. Deliver must not block; it returns false when
// the event was dropped because the observer was not ready.
type Observer interface {
	Deliver(ev Event) bool
}

// Bus is the in-process publish/subscribe registry mapping observers to
// symbol and order topics. Delivery is best-effort and fire-and-forget: no
// queueing, no replay. The bus holds weak references only — it never owns an
// observer's lifecycle beyond its subscriptions.
type Bus struct {
	subs map[Topic]map[Observer]struct{}
	mu   sync.RWMutex
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Topic]map[Observer]struct{}),
	}
}

// Subscribe registers the observer on a topic. Subscribing twice is a no-op.
func (b *Bus) Subscribe(obs Observer, topic Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[topic]
	if !ok {
		set = make(map[Observer]struct{})
		b.subs[topic] = set
	}
	set[obs] = struct{}{}
}

// Unsubscribe removes the observer from a topic
func (b *Bus) Unsubscribe(obs Observer, topic Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[topic]; ok {
		delete(set, obs)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
}

// Publish delivers the event to every observer currently subscribed to the
// topic. Observers that are not ready are skipped.
func (b *Bus) Publish(topic Topic, ev Event) {
	b.mu.RLock()
	observers := make([]Observer, 0, len(b.subs[topic]))
	for obs := range b.subs[topic] {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		if !obs.Deliver(ev) {
			metrics.EventsDropped.Inc()
		}
	}
}

// DropObserver removes every subscription held by the observer. Called on
// observer disconnect.
func (b *Bus) DropObserver(obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, set := range b.subs {
		delete(set, obs)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
}

// SubscriberCount returns how many observers a topic currently has
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[topic])
}
