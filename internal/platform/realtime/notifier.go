package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// subscriberBuffer is the per-subscriber event queue depth. A subscriber
// whose buffer is full misses events rather than blocking publishers.
const subscriberBuffer = 64

// Subscriber is a single registered event consumer. Events are received
// from the channel returned by Events until Unsubscribe closes it.
type Subscriber struct {
	events chan Event
	once   sync.Once
}

// Events returns the channel the notifier delivers on. The channel is
// closed when the subscriber is unsubscribed.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.events) })
}

// Notifier fans events out to the current set of subscribers. Delivery is
// best effort and at most once: publishing with no subscribers is a no-op,
// and a slow subscriber drops events instead of stalling the publisher.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	logger      zerolog.Logger
	dropped     atomic.Uint64
}

// NewNotifier returns an empty notifier.
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		subscribers: make(map[*Subscriber]struct{}),
		logger:      logger.With().Str("component", "realtime").Logger(),
	}
}

// Subscribe registers a new subscriber and returns it. The caller must
// Unsubscribe when done or the subscriber leaks.
func (n *Notifier) Subscribe() *Subscriber {
	sub := &Subscriber{events: make(chan Event, subscriberBuffer)}
	n.mu.Lock()
	n.subscribers[sub] = struct{}{}
	n.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscriber and closes its event channel.
// Unsubscribing twice is safe.
func (n *Notifier) Unsubscribe(sub *Subscriber) {
	n.mu.Lock()
	_, ok := n.subscribers[sub]
	delete(n.subscribers, sub)
	n.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Publish delivers the event to every current subscriber without blocking.
// Subscribers with full buffers are skipped.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for sub := range n.subscribers {
		select {
		case sub.events <- ev:
		default:
			n.dropped.Add(1)
			n.logger.Warn().Str("event", string(ev.Type)).Msg("subscriber buffer full, event dropped")
		}
	}
}

// Dropped reports how many events were skipped due to full buffers.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// SubscriberCount reports the number of active subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}
