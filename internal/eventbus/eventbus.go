// Package eventbus provides the explicit publish/subscribe channel the
// orchestrator and aggregator emit live updates on. Consumers that want
// "live" crowd or prediction data subscribe here instead of observing any
// shared mutable state.
package eventbus

import (
	"sync"
	"time"
)

// Event is an arbitrary event passed on the bus.
type Event interface{}

// CrowdSegmentUpdated is published after a crowd segment was created or
// updated by an ingest.
type CrowdSegmentUpdated struct {
	Cell        string
	SampleCount int64
	AvgWhPerKm  float64
	Created     bool
}

// PredictionComputed is published after every successful trip prediction.
type PredictionComputed struct {
	DistanceKm float64
	EnergyWh   float64
	Confidence float64
	ComputedAt time.Time
}

// TripsSynced is published after a sync batch completes.
type TripsSynced struct {
	UserID      string
	SyncedCount int
}

// EventBus is the publish/subscribe surface.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

const subscriberBuffer = 16

// Bus is the default EventBus implementation using fan-out channels. Publish
// never blocks; slow subscribers drop events instead of stalling ingestion.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber, non-blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
