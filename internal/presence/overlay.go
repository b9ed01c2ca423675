// ABOUTME: Overlay selection for the agent console lock screens
// ABOUTME: Maps a derived status to at most one visible blocking overlay

package presence

// Overlay identifies which blocking overlay (if any) the console must show.
type Overlay string

const (
	OverlayNone           Overlay = "none"
	OverlayDisconnected   Overlay = "disconnected"
	OverlayBreak          Overlay = "break"
	OverlayIdle           Overlay = "idle"
	OverlayAutomaticBreak Overlay = "automatic_break"
)

// OverlayFor selects the overlay for a derived status. The statuses are
// mutually exclusive, so at most one overlay is ever visible.
func OverlayFor(status Status) Overlay {
	switch status {
	case StatusOffline:
		return OverlayDisconnected
	case StatusBreak:
		return OverlayBreak
	case StatusIdle:
		return OverlayIdle
	case StatusInactive:
		return OverlayAutomaticBreak
	}
	return OverlayNone
}

// OverlayState is the wire representation of overlay visibility consumed by
// console clients. Exactly zero or one field is true.
type OverlayState struct {
	Disconnected   bool `json:"disconnected"`
	Break          bool `json:"break"`
	Idle           bool `json:"idle"`
	AutomaticBreak bool `json:"automatic_break"`
}

// OverlayStateFor expands an overlay into per-lock visibility flags.
func OverlayStateFor(overlay Overlay) OverlayState {
	return OverlayState{
		Disconnected:   overlay == OverlayDisconnected,
		Break:          overlay == OverlayBreak,
		Idle:           overlay == OverlayIdle,
		AutomaticBreak: overlay == OverlayAutomaticBreak,
	}
}
