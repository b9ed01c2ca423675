// ABOUTME: Thread-safe TTL cache for suppressing repeated notifications
// ABOUTME: Prevents the same status toast from firing on every poll tick

package notify

import (
	"container/list"
	"sync"
	"time"
)

// suppressEntry stores the timestamp and list element for a cached key.
type suppressEntry struct {
	timestamp time.Time
	element   *list.Element
}

// Suppressor provides a thread-safe, TTL-based, size-limited cache for
// notification keys. A key that was recently marked is suppressed, so a
// status that stays locked across many polls only toasts once per window.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type Suppressor struct {
	mu      sync.RWMutex
	seen    map[string]*suppressEntry
	order   *list.List // keys in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// NewSuppressor creates a suppressor with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func NewSuppressor(ttl time.Duration, maxSize int) *Suppressor {
	s := &Suppressor{
		seen:    make(map[string]*suppressEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Suppressed atomically checks whether a key fired within the TTL window and
// marks it if not. Returns true if the notification should be dropped.
func (s *Suppressor) Suppressed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.seen[key]
	if ok && time.Since(entry.timestamp) < s.ttl {
		return true
	}

	s.markLocked(key)
	return false
}

// markLocked records a key. Must be called with mu held.
func (s *Suppressor) markLocked(key string) {
	now := time.Now()

	if entry, exists := s.seen[key]; exists {
		entry.timestamp = now
		s.order.MoveToBack(entry.element)
		return
	}

	if len(s.seen) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.order.PushBack(key)
	s.seen[key] = &suppressEntry{
		timestamp: now,
		element:   elem,
	}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (s *Suppressor) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	s.order.Remove(front)
	delete(s.seen, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (s *Suppressor) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCleanup()
		case <-s.done:
			return
		}
	}
}

// runCleanup removes all expired entries.
func (s *Suppressor) runCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.seen {
		if now.Sub(entry.timestamp) > s.ttl {
			s.order.Remove(entry.element)
			delete(s.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (s *Suppressor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.done)
		s.closed = true
	}
}
