// Package events provides the publish-subscribe bus connecting the queue
// manager and sync manager to passive observers (CLI, agent logging).
//
// Handlers run synchronously on the publishing goroutine. The registry is
// snapshotted per emission pass, so a handler that unsubscribes itself (or
// another handler) does not affect the pass already in flight.
package events

import (
	"sync"
	"time"

	"fixmybarangay/internal/report"
)

// Event names observable on the bus.
type Event string

const (
	QueueUpdated  Event = "queue-updated"
	ItemSynced    Event = "item-synced"
	ItemFailed    Event = "item-failed"
	ItemDropped   Event = "item-dropped"
	SyncStarted   Event = "sync-started"
	SyncCompleted Event = "sync-completed"
	SyncFailed    Event = "sync-failed"
	NetworkChange Event = "network-changed"
	StatusUpdated Event = "status-updated"
)

// ItemResult is the payload for item-synced, item-failed, and item-dropped.
type ItemResult struct {
	ItemID     string
	Report     *report.Report // set on item-synced
	Err        error          // set on item-failed and item-dropped
	RetryCount int
}

// SyncResult is the payload for sync-completed and sync-failed.
type SyncResult struct {
	Submitted int
	Failed    int
	Dropped   int
	Duration  time.Duration
	Err       error
}

// Handler receives an event payload. The payload type depends on the event.
type Handler func(event Event, payload any)

// Bus is a per-event observer registry.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[Event][]subscription
}

type subscription struct {
	id      int
	handler Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Event][]subscription)}
}

// Subscribe registers a handler for an event and returns a subscription id
// usable with Unsubscribe.
func (b *Bus) Subscribe(event Event, handler Handler) int {
	if handler == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a handler. Unknown ids are ignored.
func (b *Bus) Unsubscribe(event Event, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[event]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers payload to every handler registered for event at the time
// of the call.
func (b *Bus) Publish(event Event, payload any) {
	b.mu.Lock()
	subs := b.handlers[event]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		sub.handler(event, payload)
	}
}
