// ABOUTME: In-memory fan-out broadcaster for presence status transitions
// ABOUTME: Publishes events to all watchers of a user without polling

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// Event is a presence transition pushed to console watchers. Status and
// overlay are carried as strings so this package stays free of presence
// imports; the server converts from the typed values.
type Event struct {
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Overlay   string    `json:"overlay"`
	Countdown string    `json:"countdown,omitempty"`
	Checking  bool      `json:"checking"`
	At        time.Time `json:"at"`
}

// Broadcaster provides in-memory pub/sub for presence events. Watchers
// register for a user ID and receive that user's transitions as they occur.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan Event // userID -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan Event),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a watcher for events on the given user ID. Returns a
// channel that receives events and a subscription ID for later
// unsubscription. The subscription is automatically cleaned up when ctx is
// cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, userID string) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[userID]; !ok {
		b.subscribers[userID] = make(map[string]chan Event)
	}
	b.subscribers[userID][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("watcher added", "user_id", userID, "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(userID, subID)
	}()

	return ch, subID
}

// Publish sends an event to all watchers of the given user.
// Non-blocking: events are dropped for watchers whose channels are full.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	subs, ok := b.subscribers[event.UserID]
	if !ok || len(subs) == 0 {
		b.mu.RUnlock()
		return
	}

	// Copy channels under read lock to avoid holding it during sends
	targets := make([]chan Event, 0, len(subs))
	for _, ch := range subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
			// Sent
		default:
			// Watcher channel full — drop event for this watcher
			b.logger.Debug("dropped event for slow watcher",
				"user_id", event.UserID,
				"status", event.Status)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(userID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[userID]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	if len(subs) == 0 {
		delete(b.subscribers, userID)
	}

	b.logger.Debug("watcher removed", "user_id", userID, "sub_id", subID)
}

// Close shuts down the broadcaster and closes all watcher channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for userID, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, userID)
	}

	b.logger.Debug("broadcaster closed")
}
