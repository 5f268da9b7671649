package logstream

import (
	"sync"
	"time"
)

// Level classifies a scrape log event for dashboard rendering.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is one live scrape-progress message pushed to stream subscribers.
type Event struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Scraper   string    `json:"scraper,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this loses events instead of slowing publishers.
const subscriberBuffer = 100

// Broadcaster fans scrape events out to any number of subscribers.
// Publishing never blocks: delivery to a full subscriber is dropped.
// The orchestrator's outcome does not depend on anyone listening.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new listener. The returned cancel func detaches the
// subscriber and closes its channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (b *Broadcaster) Publish(level Level, scraper, message string) {
	ev := Event{
		Level:     level,
		Message:   message,
		Scraper:   scraper,
		Timestamp: time.Now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop this event for it.
		}
	}
}

// SubscriberCount returns the number of attached subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
