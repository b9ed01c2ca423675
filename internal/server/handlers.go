// ABOUTME: HTTP handlers for login, activity, and workspace administration
// ABOUTME: All responses are JSON; gating decisions are redirects, never errors

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/relaydesk/console-gateway/internal/presence"
	"github.com/relaydesk/console-gateway/internal/session"
	"github.com/relaydesk/console-gateway/internal/store"
)

// writeJSON encodes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("encoding response", "error", err)
	}
}

// writeError encodes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
}

// handleLogin verifies credentials, issues a session token, and records the
// session for audit and logout.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("looking up user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.verifier.Generate(user.ID, s.cfg.Auth.SessionTTL)
	if err != nil {
		s.logger.Error("generating token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	sess := &store.ConsoleSession{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Auth.SessionTTL),
	}
	if err := s.store.CreateConsoleSession(r.Context(), sess); err != nil {
		s.logger.Error("recording session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "kind", user.Kind)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		SessionID: sess.ID,
		UserID:    user.ID,
		Name:      user.Name,
		Kind:      string(user.Kind),
	})
}

type logoutRequest struct {
	SessionID string `json:"session_id"`
}

// handleLogout deletes the recorded session and the agent's presence entry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.SessionID != "" {
		if err := s.store.DeleteConsoleSession(r.Context(), req.SessionID); err != nil {
			s.logger.Warn("deleting session", "error", err)
		}
	}

	if err := s.cache.Remove(r.Context(), sess.User.ID); err != nil {
		s.logger.Warn("removing presence", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type activityResponse struct {
	Snapshot  *presence.Snapshot    `json:"snapshot"`
	Status    presence.Status       `json:"status"`
	Overlay   presence.Overlay      `json:"overlay"`
	Overlays  presence.OverlayState `json:"overlays"`
	Countdown string                `json:"countdown,omitempty"`
}

// handleActivity returns the caller's latest snapshot with the status and
// overlay derived at the current instant.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	snap, err := s.cache.Get(r.Context(), sess.User.ID)
	if err != nil {
		s.logger.Error("reading activity", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	status := presence.DeriveStatus(snap, now)
	overlay := presence.OverlayFor(status)

	resp := activityResponse{
		Snapshot: snap,
		Status:   status,
		Overlay:  overlay,
		Overlays: presence.OverlayStateFor(overlay),
	}
	if overlay == presence.OverlayIdle {
		resp.Countdown = presence.CountdownAt(snap, now)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHeartbeat records a tracked agent action, resetting the idle clock.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if err := s.cache.Touch(r.Context(), sess.User.ID, time.Now()); err != nil {
		s.logger.Error("recording heartbeat", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type connectResponse struct {
	Connected bool `json:"connected"`
}

// handleConnect performs the presence confirmation action. An agent on a
// managed break is declined; everyone else transitions back to online.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	snap, err := s.cache.Get(r.Context(), sess.User.ID)
	if err != nil {
		s.logger.Error("reading activity", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if snap.Kind == presence.KindBreak && !snap.Offline {
		writeJSON(w, http.StatusOK, connectResponse{Connected: false})
		return
	}

	if err := s.cache.SetKind(r.Context(), sess.User.ID, presence.KindOnline, time.Now()); err != nil {
		s.logger.Error("reconnecting agent", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("agent reconnected", "user_id", sess.User.ID)
	writeJSON(w, http.StatusOK, connectResponse{Connected: true})
}

// handleOnlineAgents lists the agents currently marked online in the
// activity cache.
func (s *Server) handleOnlineAgents(w http.ResponseWriter, r *http.Request) {
	ids, err := s.cache.OnlineUserIDs(r.Context())
	if err != nil {
		s.logger.Error("listing online agents", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"online": ids})
}

// handleWorkspaceUsers lists the members of the caller's workspace.
func (s *Server) handleWorkspaceUsers(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	users, err := s.store.ListUsers(r.Context(), sess.User.WorkspaceID)
	if err != nil {
		s.logger.Error("listing users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type member struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Kind  string `json:"kind"`
	}
	members := make([]member, 0, len(users))
	for _, u := range users {
		members = append(members, member{ID: u.ID, Name: u.Name, Email: u.Email, Kind: string(u.Kind)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": members})
}

type workspaceFlagsRequest struct {
	EnableAgentStatus          bool `json:"enable_agent_status"`
	EnableAgentStatusForAgents bool `json:"enable_agent_status_for_agents"`
}

// handleWorkspaceFlags updates the caller workspace's agent-status flags.
func (s *Server) handleWorkspaceFlags(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var req workspaceFlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.store.UpdateWorkspaceFlags(r.Context(), sess.User.WorkspaceID,
		session.AdvancedModuleFeatures{EnableAgentStatus: req.EnableAgentStatus},
		session.GeneralConfigs{EnableAgentStatusForAgents: req.EnableAgentStatusForAgents},
	)
	if err != nil {
		s.logger.Error("updating workspace flags", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
