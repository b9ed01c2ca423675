// ABOUTME: Activity snapshot types describing one agent's server-reported presence
// ABOUTME: Snapshots are immutable; each poll produces a whole replacement

package presence

import "time"

// Kind is the server-reported presence classification of an agent.
type Kind string

const (
	KindOnline    Kind = "online"
	KindBreak     Kind = "break"
	KindInactive  Kind = "inactive"
	KindOffline   Kind = "offline"
	KindUndefined Kind = "undefined"
)

// BreakSetting describes when idle warnings and forced breaks trigger for a
// workspace. All intervals are in seconds, matching the wire format.
type BreakSetting struct {
	Enabled                     bool  `json:"enabled"`
	NotificationIntervalSeconds int64 `json:"notification_interval_seconds"`
	BreakStartDelaySeconds      int64 `json:"break_start_delay_seconds"`
}

// Snapshot is the latest polled presence state for one agent. It is never
// mutated in place: every refresh replaces the previous snapshot wholesale.
type Snapshot struct {
	UserID         string        `json:"user_id"`
	Kind           Kind          `json:"kind"`
	LastActivityAt *time.Time    `json:"last_activity_at,omitempty"`
	BreakSetting   *BreakSetting `json:"break_setting,omitempty"`

	// Offline overrides Kind when true (connection-level disconnect).
	Offline bool `json:"offline"`
}

// OfflineSnapshot returns the snapshot reported for an agent with no cached
// presence state.
func OfflineSnapshot(userID string) *Snapshot {
	return &Snapshot{
		UserID:  userID,
		Kind:    KindOffline,
		Offline: true,
	}
}

// IdleDeadline returns the instant after which the agent counts as idle, or
// the zero time when the snapshot carries no usable break setting.
func IdleDeadline(snap *Snapshot) time.Time {
	if snap == nil || snap.BreakSetting == nil || snap.LastActivityAt == nil {
		return time.Time{}
	}
	return snap.LastActivityAt.Add(time.Duration(snap.BreakSetting.NotificationIntervalSeconds) * time.Second)
}

// BreakDeadline returns the instant the forced break begins: the idle deadline
// plus the workspace's break start delay.
func BreakDeadline(snap *Snapshot) time.Time {
	if snap == nil || snap.BreakSetting == nil || snap.LastActivityAt == nil {
		return time.Time{}
	}
	total := snap.BreakSetting.NotificationIntervalSeconds + snap.BreakSetting.BreakStartDelaySeconds
	return snap.LastActivityAt.Add(time.Duration(total) * time.Second)
}
