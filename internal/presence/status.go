// ABOUTME: Pure derivation of an agent's activity status from a snapshot
// ABOUTME: Recomputed on every tick; no transition history is kept

package presence

import "time"

// Status is the derived activity classification driving overlay selection.
type Status string

const (
	StatusUndefined Status = "undefined"
	StatusOffline   Status = "offline"
	StatusBreak     Status = "break"
	StatusInactive  Status = "inactive"
	StatusIdle      Status = "idle"
	StatusOnline    Status = "online"
)

// DeriveStatus classifies an agent from its latest snapshot and the current
// wall-clock time. The function is pure and deterministic; callers recompute
// it on every poll or tick rather than storing transitions.
//
// An agent whose last tracked action is exactly at the idle deadline is still
// online; idle begins strictly after the deadline. When the workspace break
// setting is disabled, a stale LastActivityAt never triggers idle.
func DeriveStatus(snap *Snapshot, now time.Time) Status {
	if snap == nil {
		return StatusUndefined
	}
	if snap.Offline {
		return StatusOffline
	}
	switch snap.Kind {
	case KindBreak:
		return StatusBreak
	case KindInactive:
		return StatusInactive
	case KindOnline:
		if snap.BreakSetting != nil && snap.BreakSetting.Enabled && snap.LastActivityAt != nil {
			if now.After(IdleDeadline(snap)) {
				return StatusIdle
			}
		}
		return StatusOnline
	}
	return StatusOnline
}
