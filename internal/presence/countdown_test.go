// ABOUTME: Unit tests for the idle-lock countdown display format
// ABOUTME: Verifies HH:MM:SS rendering, rounding, and the zero clamp

package presence

import (
	"testing"
	"time"
)

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		want      string
	}{
		{"two minutes five seconds", 125 * time.Second, "00:02:05"},
		{"one hour", time.Hour, "01:00:00"},
		{"over a day keeps counting hours", 25 * time.Hour, "25:00:00"},
		{"single second", time.Second, "00:00:01"},
		{"partial second rounds up", 300 * time.Millisecond, "00:00:01"},
		{"zero clamps", 0, ZeroCountdown},
		{"negative clamps", -5 * time.Second, ZeroCountdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCountdown(tt.remaining); got != tt.want {
				t.Errorf("FormatCountdown(%v) = %q, want %q", tt.remaining, got, tt.want)
			}
		})
	}
}

func TestCountdownAt(t *testing.T) {
	last := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		UserID:         "agent-1",
		Kind:           KindOnline,
		LastActivityAt: &last,
		BreakSetting: &BreakSetting{
			Enabled:                     true,
			NotificationIntervalSeconds: 60,
			BreakStartDelaySeconds:      120,
		},
	}

	// Forced break begins 180s after the last activity.
	if got := CountdownAt(snap, last.Add(55*time.Second)); got != "00:02:05" {
		t.Errorf("CountdownAt() = %q, want %q", got, "00:02:05")
	}
	if got := CountdownAt(snap, last.Add(180*time.Second)); got != ZeroCountdown {
		t.Errorf("CountdownAt() at deadline = %q, want %q", got, ZeroCountdown)
	}
	if got := CountdownAt(snap, last.Add(time.Hour)); got != ZeroCountdown {
		t.Errorf("CountdownAt() past deadline = %q, want %q", got, ZeroCountdown)
	}
}

func TestCountdownAt_NoDeadline(t *testing.T) {
	snap := &Snapshot{UserID: "agent-1", Kind: KindOnline}
	if got := CountdownAt(snap, time.Now()); got != ZeroCountdown {
		t.Errorf("CountdownAt() without deadline = %q, want %q", got, ZeroCountdown)
	}
}
