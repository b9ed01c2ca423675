// ABOUTME: Unit tests for the route authorization dispatcher
// ABOUTME: Covers match order, guard ordering, login-loop avoidance, and titles

package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaydesk/console-gateway/internal/session"
)

func view(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
	})
}

func testRoutes() []RouteDescriptor {
	return []RouteDescriptor{
		{Path: "/login", ExactMatch: true, View: view("login"), AccessGranted: true, Title: "Login"},
		{Path: "/admin", RedirectTo: "/settings"},
		{Path: "/conversations", RequiresAuth: true, View: view("conversations"), AccessGranted: true, Title: "Conversations"},
		{Path: "/settings", RequiresAuth: true, View: view("settings"), AccessGranted: false, Title: "Settings"},
		{Path: "/", ExactMatch: true, RequiresAuth: true, View: view("dashboard"), AccessGranted: true, Title: "Dashboard"},
	}
}

func newTestDispatcher(routes []RouteDescriptor) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Routes:   routes,
		AppTitle: "RelayDesk",
	})
}

func TestResolve_FirstMatchWins(t *testing.T) {
	// Two entries share a path; the earlier one must win regardless of
	// which is more permissive.
	routes := []RouteDescriptor{
		{Path: "/reports", RequiresAuth: true, View: view("first"), AccessGranted: false},
		{Path: "/reports", RequiresAuth: true, View: view("second"), AccessGranted: true},
	}
	d := newTestDispatcher(routes)

	res := d.Resolve("/reports", true)
	if res.Kind != ResolutionRedirect {
		t.Fatalf("Resolve() kind = %v, want redirect from the first entry", res.Kind)
	}
	if res.Target != DefaultHomePath {
		t.Errorf("Resolve() target = %q, want %q", res.Target, DefaultHomePath)
	}
}

func TestResolve_RedirectEntryWinsImmediately(t *testing.T) {
	d := newTestDispatcher(testRoutes())

	// Redirect entries short-circuit before any guard, even unauthenticated.
	res := d.Resolve("/admin", false)
	if res.Kind != ResolutionRedirect || res.Target != "/settings" {
		t.Errorf("Resolve(/admin) = %+v, want redirect to /settings", res)
	}
}

func TestResolve_AccessDeniedBeforeAuth(t *testing.T) {
	d := newTestDispatcher(testRoutes())

	// An unauthenticated user without access goes home, never to login:
	// the access check runs strictly before the authentication check.
	res := d.Resolve("/settings", false)
	if res.Kind != ResolutionRedirect {
		t.Fatalf("Resolve() kind = %v, want redirect", res.Kind)
	}
	if res.Target != DefaultHomePath {
		t.Errorf("Resolve() target = %q, want %q (home, not login)", res.Target, DefaultHomePath)
	}

	// Authenticated but denied: same outcome.
	res = d.Resolve("/settings", true)
	if res.Kind != ResolutionRedirect || res.Target != DefaultHomePath {
		t.Errorf("Resolve() = %+v, want redirect home", res)
	}
}

func TestResolve_UnauthenticatedRedirectsToLogin(t *testing.T) {
	d := newTestDispatcher(testRoutes())

	res := d.Resolve("/conversations", false)
	if res.Kind != ResolutionRedirect || res.Target != DefaultLoginPath {
		t.Errorf("Resolve() = %+v, want redirect to login", res)
	}
}

func TestResolve_LoginPathNeverLoops(t *testing.T) {
	// The login route itself guarded by authentication must still render
	// for an unauthenticated user, or every login attempt would redirect
	// back to itself forever.
	routes := []RouteDescriptor{
		{Path: "/login", ExactMatch: true, RequiresAuth: true, View: view("login"), AccessGranted: true},
	}
	d := newTestDispatcher(routes)

	res := d.Resolve("/login", false)
	if res.Kind != ResolutionRender {
		t.Fatalf("Resolve(/login) kind = %v, want render", res.Kind)
	}
}

func TestResolve_RenderInstallsTitle(t *testing.T) {
	d := newTestDispatcher(testRoutes())

	res := d.Resolve("/conversations", true)
	if res.Kind != ResolutionRender {
		t.Fatalf("Resolve() kind = %v, want render", res.Kind)
	}
	if res.Title != "RelayDesk - Conversations" {
		t.Errorf("Resolve() title = %q, want %q", res.Title, "RelayDesk - Conversations")
	}

	// An untitled route falls back to the bare app title.
	routes := []RouteDescriptor{{Path: "/blank", View: view("blank"), AccessGranted: true}}
	res = newTestDispatcher(routes).Resolve("/blank", true)
	if res.Title != "RelayDesk" {
		t.Errorf("Resolve() title = %q, want %q", res.Title, "RelayDesk")
	}
}

func TestResolve_NoMatch(t *testing.T) {
	routes := []RouteDescriptor{
		{Path: "/conversations", ExactMatch: true, View: view("conversations"), AccessGranted: true},
	}
	d := newTestDispatcher(routes)

	res := d.Resolve("/nowhere", true)
	if res.Kind != ResolutionNone {
		t.Errorf("Resolve() kind = %v, want none", res.Kind)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		routePath   string
		requestPath string
		exact       bool
		want        bool
	}{
		{"exact equal", "/settings", "/settings", true, true},
		{"exact tolerates trailing slash", "/settings", "/settings/", true, true},
		{"exact rejects child", "/settings", "/settings/team", true, false},
		{"prefix equal", "/settings", "/settings", false, true},
		{"prefix child", "/settings", "/settings/team", false, true},
		{"prefix respects segment boundary", "/settings", "/settingsx", false, false},
		{"root prefix matches everything", "/", "/anything/at/all", false, true},
		{"root exact rejects children", "/", "/anything", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.routePath, tt.requestPath, tt.exact); got != tt.want {
				t.Errorf("matches(%q, %q, exact=%v) = %v, want %v",
					tt.routePath, tt.requestPath, tt.exact, got, tt.want)
			}
		})
	}
}

func TestResolve_BasePathPrefix(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{
		Routes: []RouteDescriptor{
			{Path: "/reports", View: view("reports"), AccessGranted: true},
		},
		BasePath: "/console",
		AppTitle: "RelayDesk",
	})

	if res := d.Resolve("/console/reports", true); res.Kind != ResolutionRender {
		t.Errorf("Resolve(/console/reports) kind = %v, want render", res.Kind)
	}
	if res := d.Resolve("/reports", true); res.Kind != ResolutionNone {
		t.Errorf("Resolve(/reports) kind = %v, want none outside the base path", res.Kind)
	}
}

func TestServeHTTP_SetsPageTitleHeader(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{
		Routes:   testRoutes(),
		AppTitle: "RelayDesk",
		Metadata: HeaderMetadata{},
	})

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	sess := &session.Session{
		User:      &session.User{ID: "u1", Kind: session.UserKindAgent},
		Workspace: &session.Workspace{ID: "ws1"},
	}
	req = req.WithContext(session.WithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	if got := rec.Header().Get(PageTitleHeader); got != "RelayDesk - Conversations" {
		t.Errorf("%s = %q, want %q", PageTitleHeader, got, "RelayDesk - Conversations")
	}
	if rec.Body.String() != "conversations" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "conversations")
	}
}

func TestServeHTTP_RedirectsUnauthenticated(t *testing.T) {
	d := newTestDispatcher(testRoutes())

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != DefaultLoginPath {
		t.Errorf("Location = %q, want %q", got, DefaultLoginPath)
	}
}

func TestServeHTTP_TrackerFiresOnlyAtRoot(t *testing.T) {
	var tracked []string
	track := func(path string) { tracked = append(tracked, path) }

	root := NewDispatcher(DispatcherConfig{Routes: testRoutes(), Root: true, Tracker: track})
	nested := NewDispatcher(DispatcherConfig{Routes: testRoutes(), Tracker: track})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	root.ServeHTTP(httptest.NewRecorder(), req)
	nested.ServeHTTP(httptest.NewRecorder(), req)

	if len(tracked) != 1 || tracked[0] != "/login" {
		t.Errorf("tracked = %v, want exactly one entry for /login from the root dispatcher", tracked)
	}
}

func TestBuildRoutes_EvaluatesAccessPredicates(t *testing.T) {
	agent := &session.User{ID: "u1", Kind: session.UserKindAgent}
	admin := &session.User{ID: "u2", Kind: session.UserKindWorkspaceAdmin}
	ws := &session.Workspace{ID: "ws1"}

	pages := []PageDescriptor{
		{Path: "/settings", RequiresAuth: true, View: view("settings"), Access: func(u *session.User, _ *session.Workspace) bool {
			return u != nil && u.IsAdmin()
		}},
		{Path: "/conversations", RequiresAuth: true, View: view("conversations")},
	}

	agentRoutes := BuildRoutes(agent, ws, pages)
	if agentRoutes[0].AccessGranted {
		t.Error("agent granted access to /settings")
	}
	if !agentRoutes[1].AccessGranted {
		t.Error("nil predicate must grant access unconditionally")
	}

	adminRoutes := BuildRoutes(admin, ws, pages)
	if !adminRoutes[0].AccessGranted {
		t.Error("admin denied access to /settings")
	}
}
