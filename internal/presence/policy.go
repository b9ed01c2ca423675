// ABOUTME: Poll policy for the presence monitor as a tagged variant
// ABOUTME: Replaces the period-zero-means-off convention with Disabled/Every

package presence

import (
	"time"

	"github.com/relaydesk/console-gateway/internal/session"
)

// PollPolicy controls whether and how often the monitor refreshes the
// activity snapshot. The zero value is the disabled policy.
type PollPolicy struct {
	enabled  bool
	interval time.Duration
}

// PollDisabled returns the policy under which no polling occurs.
func PollDisabled() PollPolicy {
	return PollPolicy{}
}

// PollEvery returns a policy that refreshes on the given interval.
func PollEvery(interval time.Duration) PollPolicy {
	return PollPolicy{enabled: true, interval: interval}
}

// Enabled reports whether the policy schedules any polling at all.
func (p PollPolicy) Enabled() bool { return p.enabled }

// Interval returns the refresh cadence. Only meaningful when Enabled.
func (p PollPolicy) Interval() time.Duration { return p.interval }

// AutomaticBreakEnabled reports whether the automatic-break feature applies to
// the given agent: the user is not any kind of admin, the workspace has both
// agent-status flags on, and the latest snapshot's break setting is enabled.
func AutomaticBreakEnabled(user *session.User, ws *session.Workspace, snap *Snapshot) bool {
	if user == nil || ws == nil {
		return false
	}
	if user.IsAdmin() {
		return false
	}
	if !ws.AdvancedModuleFeatures.EnableAgentStatus || !ws.GeneralConfigs.EnableAgentStatusForAgents {
		return false
	}
	return snap != nil && snap.BreakSetting != nil && snap.BreakSetting.Enabled
}

// PolicyFor returns the monitor poll policy for an agent: Every(interval)
// while the automatic-break feature applies, Disabled otherwise.
func PolicyFor(user *session.User, ws *session.Workspace, snap *Snapshot, interval time.Duration) PollPolicy {
	if !AutomaticBreakEnabled(user, ws, snap) {
		return PollDisabled()
	}
	return PollEvery(interval)
}
