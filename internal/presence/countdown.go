// ABOUTME: Countdown formatting for the idle-lock overlay
// ABOUTME: Renders remaining time until the forced-break deadline as HH:MM:SS

package presence

import (
	"fmt"
	"time"
)

// ZeroCountdown is the display value once the forced-break deadline has passed.
const ZeroCountdown = "00:00:00"

// FormatCountdown renders a remaining duration as HH:MM:SS, clamped to
// ZeroCountdown at and past the deadline. Partial seconds round up so the
// display never shows zero while time actually remains.
func FormatCountdown(remaining time.Duration) string {
	if remaining <= 0 {
		return ZeroCountdown
	}
	secs := int64((remaining + time.Second - 1) / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// CountdownAt renders the countdown string for a snapshot's forced-break
// deadline as seen at the given instant.
func CountdownAt(snap *Snapshot, now time.Time) string {
	deadline := BreakDeadline(snap)
	if deadline.IsZero() {
		return ZeroCountdown
	}
	return FormatCountdown(deadline.Sub(now))
}
