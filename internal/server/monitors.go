// ABOUTME: Per-agent presence monitor registry with reference counting
// ABOUTME: One monitor runs per watched agent regardless of console connections

package server

import (
	"context"
	"sync"
	"time"

	"github.com/relaydesk/console-gateway/internal/presence"
)

// cacheClient implements presence.ActivityClient against the in-process
// activity cache, the way remote consoles go through the REST API.
type cacheClient struct {
	server *Server
	userID string
}

func (c *cacheClient) FetchActivity(ctx context.Context) (*presence.Snapshot, error) {
	return c.server.cache.Get(ctx, c.userID)
}

func (c *cacheClient) Connect(ctx context.Context) (bool, error) {
	snap, err := c.server.cache.Get(ctx, c.userID)
	if err != nil {
		return false, err
	}
	if snap.Kind == presence.KindBreak && !snap.Offline {
		return false, nil
	}
	if err := c.server.cache.SetKind(ctx, c.userID, presence.KindOnline, time.Now()); err != nil {
		return false, err
	}
	return true, nil
}

// monitorEntry tracks one running monitor and its console connections.
type monitorEntry struct {
	monitor *presence.Monitor
	cancel  context.CancelFunc
	done    chan struct{}
	refs    int
}

// monitorRegistry keeps at most one monitor per agent, reference counted by
// watch connections. The last release tears the monitor's timers down.
type monitorRegistry struct {
	mu      sync.Mutex
	entries map[string]*monitorEntry
}

func newMonitorRegistry() *monitorRegistry {
	return &monitorRegistry{entries: make(map[string]*monitorEntry)}
}

// Acquire returns the running monitor for a user, starting one via build on
// first use.
func (r *monitorRegistry) Acquire(userID string, build func() *presence.Monitor) *presence.Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[userID]; ok {
		entry.refs++
		return entry.monitor
	}

	ctx, cancel := context.WithCancel(context.Background())
	entry := &monitorEntry{
		monitor: build(),
		cancel:  cancel,
		done:    make(chan struct{}),
		refs:    1,
	}
	r.entries[userID] = entry

	go func() {
		defer close(entry.done)
		entry.monitor.Run(ctx)
	}()

	return entry.monitor
}

// Release drops one reference; the monitor stops when the last console
// disconnects. No fetch fires after the cancellation takes effect.
func (r *monitorRegistry) Release(userID string) {
	r.mu.Lock()
	entry, ok := r.entries[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.entries, userID)
	r.mu.Unlock()

	entry.cancel()
	<-entry.done
}

// CloseAll stops every running monitor. Used during shutdown.
func (r *monitorRegistry) CloseAll() {
	r.mu.Lock()
	entries := make([]*monitorEntry, 0, len(r.entries))
	for userID, entry := range r.entries {
		entries = append(entries, entry)
		delete(r.entries, userID)
	}
	r.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
		<-entry.done
	}
}
