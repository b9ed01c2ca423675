// Package notify provides the notification surfaces used by the presence
// machinery: a fire-and-forget Notifier port for console toasts, a TTL
// suppressor so stuck statuses do not re-toast on every poll, and an
// in-memory broadcaster that fans presence transitions out to watchers.
package notify
