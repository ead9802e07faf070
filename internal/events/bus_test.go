package events

import (
	"sync"
	"testing"
	"time"
)

// collector accumulates events behind a mutex and signals arrival.
type collector struct {
	mu     sync.Mutex
	events []Event
	got    chan struct{}
}

func newCollector() *collector {
	return &collector{got: make(chan struct{}, 64)}
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Stop()

	c := newCollector()
	bus.Subscribe(EventTypeFrameAdvanced, c.handle)

	bus.Publish(NewFrameAlignedEvent(EventTypeFrameAdvanced, "s1", 1, 40, 0.98))
	bus.Publish(NewFrameAlignedEvent(EventTypeFrameDuplicate, "s1", 2, 0, 0.99))
	bus.Publish(NewFrameAlignedEvent(EventTypeFrameAdvanced, "s1", 3, 35, 0.95))

	events := c.wait(t, 2)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Type != EventTypeFrameAdvanced {
			t.Errorf("received %v, want only frame.advanced", e.Type)
		}
	}
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	bus := NewEventBus(64)
	defer bus.Stop()

	c := newCollector()
	bus.Subscribe(EventTypeFrameCaptured, c.handle)

	const n = 20
	for i := 0; i < n; i++ {
		bus.Publish(NewFrameCapturedEvent("s1", i, 800, 600))
	}

	events := c.wait(t, n)
	for i, e := range events {
		if got := e.Data["index"].(int); got != i {
			t.Fatalf("event %d has index %d, want %d", i, got, i)
		}
	}
}

func TestSubscribeAllCoversEveryType(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	c := newCollector()
	ids := bus.SubscribeAll(c.handle)
	if len(ids) != len(AllEventTypes) {
		t.Fatalf("got %d subscriptions, want %d", len(ids), len(AllEventTypes))
	}

	bus.Publish(NewSessionStartedEvent("s1", "full", 125))
	bus.Publish(NewSessionStalledEvent("s1", 4))
	bus.Publish(NewConfigWarningEvent("s1", "overlap clamped"))

	events := c.wait(t, 3)
	if events[0].Type != EventTypeSessionStarted ||
		events[1].Type != EventTypeSessionStalled ||
		events[2].Type != EventTypeConfigWarning {
		t.Errorf("unexpected sequence: %v, %v, %v", events[0].Type, events[1].Type, events[2].Type)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Stop()

	c := newCollector()
	id := bus.Subscribe(EventTypeError, c.handle)
	if got := bus.GetSubscriberCount(EventTypeError); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	bus.Unsubscribe(id)
	if got := bus.GetSubscriberCount(EventTypeError); got != 0 {
		t.Fatalf("subscriber count after unsubscribe = %d, want 0", got)
	}
}

func TestHandlerPanicDoesNotKillDispatch(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Stop()

	bus.Subscribe(EventTypeFrameCaptured, func(Event) { panic("boom") })
	c := newCollector()
	bus.Subscribe(EventTypeFrameCaptured, c.handle)

	bus.Publish(NewFrameCapturedEvent("s1", 0, 10, 10))
	bus.Publish(NewFrameCapturedEvent("s1", 1, 10, 10))

	events := c.wait(t, 2)
	if len(events) != 2 {
		t.Fatalf("got %d events after panic, want 2", len(events))
	}
}

func TestStopDrainsQueuedEvents(t *testing.T) {
	bus := NewEventBus(64)

	var mu sync.Mutex
	count := 0
	bus.Subscribe(EventTypeFrameCaptured, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 30; i++ {
		bus.Publish(NewFrameCapturedEvent("s1", i, 10, 10))
	}
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if count != 30 {
		t.Errorf("handled %d events after Stop, want all 30", count)
	}
}