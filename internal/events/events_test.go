package events_test

import (
	"testing"

	"fixmybarangay/internal/events"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := events.NewBus()

	var got []string
	bus.Subscribe(events.QueueUpdated, func(_ events.Event, payload any) {
		got = append(got, payload.(string))
	})
	bus.Subscribe(events.QueueUpdated, func(_ events.Event, payload any) {
		got = append(got, payload.(string)+"-second")
	})

	bus.Publish(events.QueueUpdated, "hello")
	if len(got) != 2 || got[0] != "hello" || got[1] != "hello-second" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestPublishSkipsOtherEvents(t *testing.T) {
	bus := events.NewBus()

	called := false
	bus.Subscribe(events.ItemSynced, func(events.Event, any) { called = true })

	bus.Publish(events.ItemFailed, nil)
	if called {
		t.Fatal("handler for item-synced ran for item-failed")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := events.NewBus()

	calls := 0
	id := bus.Subscribe(events.SyncCompleted, func(events.Event, any) { calls++ })

	bus.Publish(events.SyncCompleted, nil)
	bus.Unsubscribe(events.SyncCompleted, id)
	bus.Publish(events.SyncCompleted, nil)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	bus := events.NewBus()

	var order []string
	var firstID int
	firstID = bus.Subscribe(events.NetworkChange, func(events.Event, any) {
		order = append(order, "first")
		bus.Unsubscribe(events.NetworkChange, firstID)
	})
	bus.Subscribe(events.NetworkChange, func(events.Event, any) {
		order = append(order, "second")
	})

	// The emission pass in flight still sees both handlers.
	bus.Publish(events.NetworkChange, nil)
	if len(order) != 2 {
		t.Fatalf("first pass deliveries = %v, want both handlers", order)
	}

	bus.Publish(events.NetworkChange, nil)
	if len(order) != 3 || order[2] != "second" {
		t.Fatalf("second pass deliveries = %v, want only the second handler", order)
	}
}
