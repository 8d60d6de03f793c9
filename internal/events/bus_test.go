package events

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSetPlanned)
	other := bus.Subscribe(EventTracksImported)

	bus.Publish(EventSetPlanned, Payload{"set_id": "s1"})

	select {
	case got := <-sub:
		if got["set_id"] != "s1" {
			t.Fatalf("unexpected payload: %v", got)
		}
	default:
		t.Fatal("subscriber did not receive event")
	}

	select {
	case got := <-other:
		t.Fatalf("other event type received %v", got)
	default:
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSetGapsAnalyzed)

	for i := range cap(sub) + 4 {
		bus.Publish(EventSetGapsAnalyzed, Payload{"n": i})
	}
	if len(sub) != cap(sub) {
		t.Fatalf("expected a full buffer, got %d", len(sub))
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSetPlanned)
	bus.Unsubscribe(EventSetPlanned, sub)

	if bus.Subscribers(EventSetPlanned) != 0 {
		t.Fatal("subscriber still registered")
	}
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}

	// Publishing with no subscribers must not panic.
	bus.Publish(EventSetPlanned, Payload{})
}
