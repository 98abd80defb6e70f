package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Subscribe(ctx, 4)
	h.Publish(Event{Type: TypeEntryLogged, Data: map[string]any{"name": "Practice"}})

	select {
	case evt := <-ch:
		if evt.Type != TypeEntryLogged || evt.Timestamp == 0 {
			t.Fatalf("evt = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestHubDropsOnSlowConsumer(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Subscribe(ctx, 1)
	h.Publish(Event{Type: "a"})
	h.Publish(Event{Type: "b"}) // 缓冲已满，丢弃

	if got := (<-ch).Type; got != "a" {
		t.Fatalf("first = %s", got)
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestHubUnsubscribeOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, 1)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("channel should be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
	if n := h.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d", n)
	}
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	h.Publish(Event{Type: "x"})
}

func TestHubStatsCountsDrops(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = h.Subscribe(ctx, 1)
	h.Publish(Event{Type: "a"})
	h.Publish(Event{Type: "b"})
	h.Publish(Event{Type: "c"})

	published, dropped := h.Stats()
	if published != 3 || dropped != 2 {
		t.Fatalf("published=%d dropped=%d", published, dropped)
	}
}
