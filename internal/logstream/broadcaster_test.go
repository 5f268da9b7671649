package logstream

import (
	"testing"
	"time"
)

func TestSubscribeReceivesEvents(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(LevelInfo, "nginx", "starting")

	select {
	case ev := <-ch:
		if ev.Level != LevelInfo || ev.Scraper != "nginx" || ev.Message != "starting" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event timestamp should be set")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()

	cancel()
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d after cancel, want 0", b.SubscriberCount())
	}

	// Channel is closed; a receive must not block.
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// Publishing with no subscribers must not panic or block.
	b.Publish(LevelError, "php", "after unsubscribe")

	// Double cancel is a no-op.
	cancel()
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBroadcaster()
	_, cancel := b.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(LevelInfo, "redis", "flood")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(LevelSuccess, "", "done")

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Message != "done" {
				t.Errorf("got message %q, want done", ev.Message)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}
