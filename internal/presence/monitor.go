// ABOUTME: Presence monitor driving the idle-lock state machine for one agent
// ABOUTME: Owns the poll loop, the idle countdown ticker, and the reconfirm debounce

package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/relaydesk/console-gateway/internal/notify"
)

// Default monitor timing. Overridable through MonitorConfig for tests and
// per-deployment tuning.
const (
	DefaultPollInterval   = 60 * time.Second
	DefaultCountdownTick  = time.Second
	DefaultReconfirmDelay = 5 * time.Second
)

// ErrCheckingStatus is returned by Reconnect while the post-deadline status
// check is in flight and the reconnect input is disabled.
var ErrCheckingStatus = errors.New("status check in progress")

// ActivityClient fetches activity snapshots and performs the connect action.
// Implementations wrap either the activity cache (in-process) or the gateway
// REST API (remote consoles).
type ActivityClient interface {
	FetchActivity(ctx context.Context) (*Snapshot, error)
	Connect(ctx context.Context) (bool, error)
}

// State is the externally visible monitor state: the derived status, the
// selected overlay, the idle countdown display, and the post-deadline
// checking sub-state.
type State struct {
	Status    Status  `json:"status"`
	Overlay   Overlay `json:"overlay"`
	Countdown string  `json:"countdown,omitempty"`
	Checking  bool    `json:"checking"`
}

// MonitorConfig contains configuration options for a Monitor.
type MonitorConfig struct {
	Client   ActivityClient
	Notifier notify.Notifier
	Logger   *slog.Logger

	// Policy controls the snapshot refresh cadence. The disabled policy
	// means Run returns immediately without fetching.
	Policy PollPolicy

	// CountdownTick and ReconfirmDelay default to one second and five
	// seconds respectively.
	CountdownTick  time.Duration
	ReconfirmDelay time.Duration

	// FeatureCheck is re-evaluated after every refresh; when it reports
	// false the monitor stops all timers and Run returns. Nil keeps the
	// monitor running while the snapshot's break setting stays enabled.
	FeatureCheck func(*Snapshot) bool

	// Now supplies wall-clock time, overridable in tests.
	Now func() time.Time

	// OnChange is invoked (outside the monitor lock) whenever the visible
	// state transitions.
	OnChange func(State)
}

// Monitor classifies one agent's activity status from periodically refreshed
// snapshots and locally computed time deltas. It recomputes from scratch on
// every poll and tick rather than storing transition history.
//
// Snapshot updates are last-write-wins: a manual reconnect refetch and the
// post-deadline reconfirm refetch may race, and the later applied snapshot
// simply replaces the earlier one. No fencing is applied.
type Monitor struct {
	client         ActivityClient
	notifier       notify.Notifier
	logger         *slog.Logger
	policy         PollPolicy
	tick           time.Duration
	reconfirmDelay time.Duration
	featureCheck   func(*Snapshot) bool
	now            func() time.Time
	onChange       func(State)

	mu          sync.Mutex
	snap        *Snapshot
	state       State
	reconfirmed bool // deadline crossing already scheduled its reconfirm
}

// NewMonitor creates a monitor. Client is required; everything else has a
// sensible default.
func NewMonitor(cfg MonitorConfig) *Monitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	tick := cfg.CountdownTick
	if tick == 0 {
		tick = DefaultCountdownTick
	}
	reconfirmDelay := cfg.ReconfirmDelay
	if reconfirmDelay == 0 {
		reconfirmDelay = DefaultReconfirmDelay
	}
	featureCheck := cfg.FeatureCheck
	if featureCheck == nil {
		featureCheck = func(snap *Snapshot) bool {
			return snap != nil && snap.BreakSetting != nil && snap.BreakSetting.Enabled
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Monitor{
		client:         cfg.Client,
		notifier:       notifier,
		logger:         logger.With("component", "presence"),
		policy:         cfg.Policy,
		tick:           tick,
		reconfirmDelay: reconfirmDelay,
		featureCheck:   featureCheck,
		now:            now,
		onChange:       cfg.OnChange,
		state:          State{Status: StatusUndefined, Overlay: OverlayNone},
	}
}

// State returns the current visible state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the latest applied snapshot, or nil before the first
// successful fetch.
func (m *Monitor) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Run drives the poll and countdown loops until ctx is cancelled or the
// feature check reports the automatic-break feature no longer applies. Under
// the disabled poll policy Run returns immediately and no fetch ever occurs.
func (m *Monitor) Run(ctx context.Context) {
	if !m.policy.Enabled() {
		m.logger.Debug("presence polling disabled")
		return
	}

	if !m.refresh(ctx) {
		return
	}

	poll := time.NewTicker(m.policy.Interval())
	defer poll.Stop()

	// The countdown ticker exists only while the idle-lock overlay is
	// visible; the reconfirm timer only between a deadline crossing and its
	// confirming refetch. A nil channel blocks its select case.
	var countdown *time.Ticker
	var countdownC <-chan time.Time
	var reconfirm *time.Timer
	var reconfirmC <-chan time.Time

	defer func() {
		if countdown != nil {
			countdown.Stop()
		}
		if reconfirm != nil {
			reconfirm.Stop()
		}
	}()

	syncCountdown := func() {
		idle := m.State().Overlay == OverlayIdle
		if idle && countdown == nil {
			countdown = time.NewTicker(m.tick)
			countdownC = countdown.C
		} else if !idle && countdown != nil {
			countdown.Stop()
			countdown = nil
			countdownC = nil
		}
	}
	syncCountdown()

	for {
		select {
		case <-ctx.Done():
			return

		case <-poll.C:
			if !m.refresh(ctx) {
				return
			}
			syncCountdown()

		case <-countdownC:
			if m.tickCountdown() {
				reconfirm = time.NewTimer(m.reconfirmDelay)
				reconfirmC = reconfirm.C
			}

		case <-reconfirmC:
			reconfirm = nil
			reconfirmC = nil
			m.reconfirm(ctx)
			syncCountdown()
		}
	}
}

// Reconnect performs the user-confirmed presence action: it calls the connect
// endpoint and, on success, shows a notification and refetches the snapshot
// immediately so the overlay can clear without waiting for the next poll.
// A false result from the server is a silent no-op.
func (m *Monitor) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	checking := m.state.Checking
	m.mu.Unlock()
	if checking {
		return ErrCheckingStatus
	}

	ok, err := m.client.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	if !ok {
		m.logger.Debug("connect declined by server")
		return nil
	}

	m.notifier.Notify(notify.LevelSuccess, "Connected", "You are back online.")

	if snap, err := m.client.FetchActivity(ctx); err != nil {
		m.logger.Warn("fetching activity after reconnect", "error", err)
	} else {
		m.applySnapshot(snap)
	}
	return nil
}

// refresh fetches and applies a fresh snapshot. Fetch failures are logged and
// the previous state is kept; the timers keep firing so the next poll
// self-heals. Returns false when the monitor should stop.
func (m *Monitor) refresh(ctx context.Context) bool {
	snap, err := m.client.FetchActivity(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		m.logger.Warn("fetching activity snapshot", "error", err)
		return true
	}

	m.applySnapshot(snap)

	if !m.featureCheck(snap) {
		m.logger.Info("automatic break no longer applies, stopping monitor")
		return false
	}
	return true
}

// applySnapshot replaces the snapshot wholesale and recomputes the visible
// state. Invoked from the run loop, the reconfirm refetch, and Reconnect;
// whichever applies last wins.
func (m *Monitor) applySnapshot(snap *Snapshot) {
	now := m.now()

	m.mu.Lock()
	m.snap = snap

	st := m.state
	st.Status = DeriveStatus(snap, now)
	st.Overlay = OverlayFor(st.Status)
	if st.Overlay == OverlayIdle {
		st.Countdown = CountdownAt(snap, now)
	} else {
		st.Countdown = ""
		st.Checking = false
		m.reconfirmed = false
	}

	changed := st != m.state
	m.state = st
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(st)
	}
}

// tickCountdown recomputes the idle countdown display. Returns true at the
// tick on which the forced-break deadline is first crossed: the checking
// sub-state begins and the caller arms the single reconfirm timer.
func (m *Monitor) tickCountdown() bool {
	now := m.now()

	m.mu.Lock()
	if m.state.Overlay != OverlayIdle {
		m.mu.Unlock()
		return false
	}

	st := m.state
	st.Countdown = CountdownAt(m.snap, now)

	crossed := false
	if st.Countdown == ZeroCountdown && !m.reconfirmed {
		st.Checking = true
		m.reconfirmed = true
		crossed = true
	}

	changed := st != m.state
	m.state = st
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(st)
	}
	return crossed
}

// reconfirm performs the one debounced refetch after the deadline crossing,
// then clears the checking sub-state.
func (m *Monitor) reconfirm(ctx context.Context) {
	if snap, err := m.client.FetchActivity(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("reconfirming activity status", "error", err)
	} else {
		m.applySnapshot(snap)
	}

	m.mu.Lock()
	st := m.state
	st.Checking = false
	changed := st != m.state
	m.state = st
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(st)
	}
}
