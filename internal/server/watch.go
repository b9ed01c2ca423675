// ABOUTME: WebSocket feed pushing presence status and overlay transitions
// ABOUTME: A watch connection acquires the agent's monitor for its lifetime

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaydesk/console-gateway/internal/notify"
	"github.com/relaydesk/console-gateway/internal/presence"
	"github.com/relaydesk/console-gateway/internal/session"
)

const (
	writeWait = 10 * time.Second
	pingWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// watchMessage is a client-to-server command on the watch socket.
type watchMessage struct {
	Action string `json:"action"` // "reconnect" | "heartbeat"
}

// handleWatch upgrades to a WebSocket, starts (or joins) the agent's
// presence monitor, and streams state transitions until the console
// disconnects. Closing the last connection tears the monitor down.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	user, ws := sess.User, sess.Workspace

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading watch connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, subID := s.broadcaster.Subscribe(ctx, user.ID)
	defer s.broadcaster.Unsubscribe(user.ID, subID)

	monitor := s.monitors.Acquire(user.ID, func() *presence.Monitor {
		return s.buildMonitor(user, ws)
	})
	defer s.monitors.Release(user.ID)

	// Initial state so the console renders without waiting for a transition
	if err := s.writeState(conn, user.ID, monitor.State()); err != nil {
		return
	}

	// Reader: client commands and connection liveness
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Now().Add(pingWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pingWait))
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.SetReadDeadline(time.Now().Add(pingWait))

			var msg watchMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Action {
			case "reconnect":
				if err := monitor.Reconnect(ctx); err != nil {
					s.logger.Debug("reconnect", "user_id", user.ID, "error", err)
				}
			case "heartbeat":
				if err := s.cache.Touch(ctx, user.ID, time.Now()); err != nil {
					s.logger.Warn("recording heartbeat", "error", err)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// buildMonitor assembles a presence monitor for one agent session: the
// cache-backed client, the poll policy derived from the user, workspace, and
// current snapshot, and an OnChange hook that fans transitions out to
// watchers and toasts lock overlays once per suppression window.
func (s *Server) buildMonitor(user *session.User, ws *session.Workspace) *presence.Monitor {
	client := &cacheClient{server: s, userID: user.ID}

	snap, err := s.cache.Get(context.Background(), user.ID)
	if err != nil {
		s.logger.Warn("reading initial snapshot", "user_id", user.ID, "error", err)
		snap = nil
	}

	return presence.NewMonitor(presence.MonitorConfig{
		Client:         client,
		Notifier:       s.notifier,
		Logger:         s.logger,
		Policy:         presence.PolicyFor(user, ws, snap, s.cfg.Presence.PollInterval),
		CountdownTick:  s.cfg.Presence.CountdownTick,
		ReconfirmDelay: s.cfg.Presence.ReconfirmDelay,
		FeatureCheck: func(snap *presence.Snapshot) bool {
			return presence.AutomaticBreakEnabled(user, ws, snap)
		},
		OnChange: func(st presence.State) {
			s.publishState(user.ID, st)
		},
	})
}

// publishState converts a monitor state into a broadcast event and fires the
// suppressed lock-overlay notification.
func (s *Server) publishState(userID string, st presence.State) {
	s.broadcaster.Publish(notify.Event{
		UserID:    userID,
		Status:    string(st.Status),
		Overlay:   string(st.Overlay),
		Countdown: st.Countdown,
		Checking:  st.Checking,
		At:        time.Now(),
	})

	if st.Overlay != presence.OverlayNone && st.Overlay != presence.OverlayIdle {
		key := userID + ":" + string(st.Overlay)
		if !s.suppressor.Suppressed(key) {
			s.notifier.Notify(notify.LevelInfo, "Agent locked", "overlay "+string(st.Overlay)+" for "+userID)
		}
	}
}

// writeState sends the current monitor state as a synthetic event.
func (s *Server) writeState(conn *websocket.Conn, userID string, st presence.State) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(notify.Event{
		UserID:    userID,
		Status:    string(st.Status),
		Overlay:   string(st.Overlay),
		Countdown: st.Countdown,
		Checking:  st.Checking,
		At:        time.Now(),
	})
}
