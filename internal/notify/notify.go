// ABOUTME: Fire-and-forget notification port for console toasts
// ABOUTME: The gateway logs them; console clients render them as toast popups

package notify

import "log/slog"

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier delivers fire-and-forget notifications to the current user's
// console. Implementations must not block.
type Notifier interface {
	Notify(level Level, title, message string)
}

// LogNotifier is a Notifier that writes notifications to the structured log.
// Used as the default sink and in tests.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. Pass nil for the default logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// Notify logs the notification at a level matching its severity.
func (n *LogNotifier) Notify(level Level, title, message string) {
	switch level {
	case LevelError:
		n.logger.Warn("notification", "level", level, "title", title, "message", message)
	default:
		n.logger.Info("notification", "level", level, "title", title, "message", message)
	}
}

// Func adapts a function to the Notifier interface.
type Func func(level Level, title, message string)

// Notify implements Notifier.
func (f Func) Notify(level Level, title, message string) { f(level, title, message) }
