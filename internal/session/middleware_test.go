// ABOUTME: Unit tests for the session authentication middleware chain
// ABOUTME: Covers bearer extraction, optional auth, and the admin gate

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeDirectory resolves one known user.
type fakeDirectory struct {
	user *User
	ws   *Workspace
}

func (d *fakeDirectory) SessionUser(_ context.Context, userID string) (*User, *Workspace, error) {
	if d.user != nil && d.user.ID == userID {
		return d.user, d.ws, nil
	}
	return nil, nil, context.Canceled
}

func newTestAuth(t *testing.T, kind UserKind) (*fakeDirectory, *JWTVerifier, string) {
	t.Helper()
	verifier := NewJWTVerifier([]byte("test-secret"))
	user := &User{ID: "user-1", WorkspaceID: "ws-1", Name: "Pat", Kind: kind}
	ws := &Workspace{ID: "ws-1", Name: "Support"}
	token, err := verifier.Generate(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return &fakeDirectory{user: user, ws: ws}, verifier, token
}

func sessionEcho() (http.Handler, **Session) {
	var captured *Session
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &captured
}

func TestMiddleware_ValidToken(t *testing.T) {
	directory, verifier, token := newTestAuth(t, UserKindAgent)
	handler, captured := sessionEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Middleware(directory, verifier)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	sess := *captured
	if sess == nil || sess.User == nil || sess.User.ID != "user-1" {
		t.Fatalf("session = %+v, want user-1", sess)
	}
	if sess.Workspace == nil || sess.Workspace.ID != "ws-1" {
		t.Errorf("workspace = %+v, want ws-1", sess.Workspace)
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	directory, verifier, _ := newTestAuth(t, UserKindAgent)
	handler, _ := sessionEcho()
	mw := Middleware(directory, verifier)(handler)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"invalid token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestMiddleware_UnknownUser(t *testing.T) {
	directory, verifier, _ := newTestAuth(t, UserKindAgent)
	token, _ := verifier.Generate("someone-else", time.Hour)
	handler, _ := sessionEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	Middleware(directory, verifier)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestOptionalMiddleware_AnonymousPassesThrough(t *testing.T) {
	directory, verifier, _ := newTestAuth(t, UserKindAgent)
	handler, captured := sessionEcho()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	OptionalMiddleware(directory, verifier)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if *captured != nil {
		t.Errorf("session = %+v, want nil for anonymous request", *captured)
	}
}

func TestOptionalMiddleware_AuthenticatedGetsSession(t *testing.T) {
	directory, verifier, token := newTestAuth(t, UserKindAgent)
	handler, captured := sessionEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	OptionalMiddleware(directory, verifier)(handler).ServeHTTP(rec, req)

	if *captured == nil || (*captured).User.ID != "user-1" {
		t.Errorf("session = %+v, want user-1", *captured)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler, _ := sessionEcho()
	gate := RequireAdmin()(handler)

	tests := []struct {
		name string
		sess *Session
		want int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"agent", &Session{User: &User{ID: "u", Kind: UserKindAgent}}, http.StatusForbidden},
		{"workspace admin", &Session{User: &User{ID: "u", Kind: UserKindWorkspaceAdmin}}, http.StatusOK},
		{"system admin", &Session{User: &User{ID: "u", Kind: UserKindSystemAdmin}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workspace/users", nil)
			if tt.sess != nil {
				req = req.WithContext(WithSession(req.Context(), tt.sess))
			}
			rec := httptest.NewRecorder()
			gate.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestFromContext_Empty(t *testing.T) {
	if sess := FromContext(context.Background()); sess != nil {
		t.Errorf("FromContext() = %+v, want nil", sess)
	}
}
