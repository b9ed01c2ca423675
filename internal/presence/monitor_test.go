// ABOUTME: Unit tests for the presence monitor state machine
// ABOUTME: Exercises poll gating, the single reconfirm, teardown, and reconnect

package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/console-gateway/internal/notify"
)

// fakeClient is an ActivityClient returning canned snapshots and counting
// calls.
type fakeClient struct {
	mu       sync.Mutex
	snap     *Snapshot
	fetches  int
	connects int
	connect  bool
}

func (f *fakeClient) FetchActivity(ctx context.Context) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.snap, nil
}

func (f *fakeClient) Connect(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connect, nil
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeClient) setSnapshot(snap *Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

func idleSnapshot(sinceActivity time.Duration) *Snapshot {
	last := time.Now().Add(-sinceActivity)
	return &Snapshot{
		UserID:         "agent-1",
		Kind:           KindOnline,
		LastActivityAt: &last,
		BreakSetting: &BreakSetting{
			Enabled:                     true,
			NotificationIntervalSeconds: 60,
			BreakStartDelaySeconds:      120,
		},
	}
}

func TestMonitor_DisabledPolicyNeverFetches(t *testing.T) {
	client := &fakeClient{snap: idleSnapshot(0)}
	m := NewMonitor(MonitorConfig{
		Client: client,
		Policy: PollDisabled(),
	})

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return under the disabled policy")
	}
	assert.Equal(t, 0, client.fetchCount(), "disabled monitor must never fetch")
	assert.Equal(t, StatusUndefined, m.State().Status)
}

func TestMonitor_IdleCountdownVisible(t *testing.T) {
	// 90s since activity with a 60s interval: idle, forced break in 90s.
	client := &fakeClient{snap: idleSnapshot(90 * time.Second)}
	m := NewMonitor(MonitorConfig{
		Client:        client,
		Policy:        PollEvery(time.Hour),
		CountdownTick: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, func() bool {
		return m.State().Overlay == OverlayIdle
	}, time.Second, 5*time.Millisecond)

	st := m.State()
	assert.NotEmpty(t, st.Countdown)
	assert.NotEqual(t, ZeroCountdown, st.Countdown)
	assert.False(t, st.Checking)
}

func TestMonitor_ReconfirmFiresExactlyOnce(t *testing.T) {
	// Past the forced-break deadline: the first countdown tick crosses it.
	client := &fakeClient{snap: idleSnapshot(10 * time.Minute)}

	var mu sync.Mutex
	var sawChecking bool
	m := NewMonitor(MonitorConfig{
		Client:         client,
		Policy:         PollEvery(time.Hour),
		CountdownTick:  5 * time.Millisecond,
		ReconfirmDelay: 10 * time.Millisecond,
		OnChange: func(st State) {
			mu.Lock()
			if st.Checking {
				sawChecking = true
			}
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// The reconfirm refetch is the second fetch after the initial refresh.
	require.Eventually(t, func() bool {
		return client.fetchCount() == 2
	}, time.Second, 5*time.Millisecond)

	// Countdown ticks keep firing past the deadline but must not schedule
	// further reconfirms.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, client.fetchCount(), "reconfirm must refetch exactly once")

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, sawChecking, "checking sub-state never became visible")
	assert.False(t, m.State().Checking, "checking must clear after the reconfirm")
	assert.Equal(t, ZeroCountdown, m.State().Countdown)
}

func TestMonitor_ReconnectBlockedWhileChecking(t *testing.T) {
	client := &fakeClient{snap: idleSnapshot(10 * time.Minute), connect: true}
	m := NewMonitor(MonitorConfig{
		Client:         client,
		Policy:         PollEvery(time.Hour),
		CountdownTick:  5 * time.Millisecond,
		ReconfirmDelay: time.Hour, // hold the checking window open
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, func() bool {
		return m.State().Checking
	}, time.Second, 5*time.Millisecond)

	err := m.Reconnect(ctx)
	require.ErrorIs(t, err, ErrCheckingStatus)
}

func TestMonitor_StopsWhenFeatureRevoked(t *testing.T) {
	snap := idleSnapshot(0)
	snap.BreakSetting.Enabled = false
	client := &fakeClient{snap: snap}

	m := NewMonitor(MonitorConfig{
		Client: client,
		Policy: PollEvery(5 * time.Millisecond),
	})

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after the feature check failed")
	}
	assert.Equal(t, 1, client.fetchCount(), "monitor must stop after the revoking fetch")
}

func TestMonitor_TeardownStopsFetching(t *testing.T) {
	client := &fakeClient{snap: idleSnapshot(0)}
	m := NewMonitor(MonitorConfig{
		Client: client,
		Policy: PollEvery(5 * time.Millisecond),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return client.fetchCount() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	count := client.fetchCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, client.fetchCount(), "no fetch may fire after teardown")
}

func TestMonitor_ReconnectSuccess(t *testing.T) {
	onlineSnap := idleSnapshot(0)
	client := &fakeClient{snap: onlineSnap, connect: true}

	var mu sync.Mutex
	var notified []string
	m := NewMonitor(MonitorConfig{
		Client: client,
		Policy: PollEvery(time.Hour),
		Notifier: notify.Func(func(level notify.Level, title, message string) {
			mu.Lock()
			notified = append(notified, string(level)+":"+title)
			mu.Unlock()
		}),
	})

	require.NoError(t, m.Reconnect(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1)
	assert.Equal(t, "success:Connected", notified[0])
	assert.Equal(t, 1, client.fetchCount(), "success must refetch immediately")
	assert.Equal(t, StatusOnline, m.State().Status)
}

func TestMonitor_ReconnectDeclined(t *testing.T) {
	client := &fakeClient{snap: idleSnapshot(0), connect: false}

	var mu sync.Mutex
	var notified int
	m := NewMonitor(MonitorConfig{
		Client: client,
		Policy: PollEvery(time.Hour),
		Notifier: notify.Func(func(notify.Level, string, string) {
			mu.Lock()
			notified++
			mu.Unlock()
		}),
	})

	require.NoError(t, m.Reconnect(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, notified, "a declined connect is a silent no-op")
	assert.Equal(t, 0, client.fetchCount(), "a declined connect must not refetch")
}

func TestMonitor_SnapshotReplacementClearsIdleState(t *testing.T) {
	client := &fakeClient{snap: idleSnapshot(10 * time.Minute)}
	m := NewMonitor(MonitorConfig{
		Client:         client,
		Policy:         PollEvery(30 * time.Millisecond),
		CountdownTick:  5 * time.Millisecond,
		ReconfirmDelay: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, func() bool {
		return m.State().Checking
	}, time.Second, 5*time.Millisecond)

	// Fresh activity arrives: the next poll replaces the snapshot wholesale
	// and the idle bookkeeping resets.
	client.setSnapshot(idleSnapshot(0))

	require.Eventually(t, func() bool {
		st := m.State()
		return st.Status == StatusOnline && !st.Checking && st.Countdown == ""
	}, time.Second, 5*time.Millisecond)
}
