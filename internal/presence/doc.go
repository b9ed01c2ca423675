// Package presence implements agent presence tracking and the idle-lock
// state machine for the console.
//
// # Model
//
// The server-reported state of one agent is a Snapshot: a presence Kind, the
// time of the last tracked action, the workspace's break setting, and an
// offline override. Snapshots are immutable; every refresh replaces the
// previous one wholesale. The latest snapshot lives in a Redis cache keyed
// per agent with a TTL (ActivityCache).
//
// # Derivation
//
// DeriveStatus is a pure function of (snapshot, now) producing one of
// Undefined, Offline, Break, Inactive, Idle, or Online. It is recomputed on
// every poll and tick; no transition history is kept. OverlayFor maps the
// status to at most one blocking console overlay.
//
// # Monitor
//
// A Monitor runs the timers for one agent session:
//
//   - a poll loop (default 60s, PollPolicy-controlled) refreshing the
//     snapshot;
//   - a countdown ticker (default 1s) active only while the idle-lock
//     overlay is visible, rendering the time left until the forced break;
//   - a single reconfirm refetch five seconds after the countdown crosses
//     zero, with the reconnect input disabled in between.
//
// Cancelling the monitor's context tears down every timer; no fetch occurs
// after teardown. Snapshot application is last-write-wins by design: a
// manual reconnect and the reconfirm refetch may race, and the later result
// simply replaces the earlier.
package presence
