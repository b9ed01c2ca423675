// ABOUTME: Console page table and the per-session dispatch handler
// ABOUTME: Access predicates run at route-build time; the dispatcher sees booleans

package server

import (
	"net/http"

	"github.com/relaydesk/console-gateway/internal/routing"
	"github.com/relaydesk/console-gateway/internal/session"
)

// pageView renders a minimal JSON page descriptor; the console front end
// hydrates the actual screen from it.
func pageView(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"page": name})
	})
}

// adminAccess grants workspace and system admins.
func adminAccess(user *session.User, _ *session.Workspace) bool {
	return user.IsAdmin()
}

// agentStatusAccess grants users of workspaces with the agent-status module.
func agentStatusAccess(_ *session.User, ws *session.Workspace) bool {
	return ws != nil && ws.AdvancedModuleFeatures.EnableAgentStatus
}

// consolePages is the declarative navigation table. Order matters: the first
// structural match wins, so specific entries come before broad ones.
func (s *Server) consolePages() []routing.PageDescriptor {
	return []routing.PageDescriptor{
		{Path: "/login", ExactMatch: true, View: pageView("login"), Title: "Sign in"},
		{Path: "/admin", RedirectTo: "/settings"},
		{Path: "/conversations", RequiresAuth: true, View: pageView("conversations"), Title: "Live Conversations"},
		{Path: "/campaigns", RequiresAuth: true, View: pageView("campaigns"), Title: "Campaigns", Access: adminAccess},
		{Path: "/monitoring", RequiresAuth: true, View: pageView("monitoring"), Title: "Agent Monitoring", Access: agentStatusAccess},
		{Path: "/settings", RequiresAuth: true, View: pageView("settings"), Title: "Settings", Access: adminAccess},
		{Path: "/", ExactMatch: true, RequiresAuth: true, View: pageView("dashboard"), Title: "Dashboard"},
	}
}

// handleConsole materializes the route table for the current session and
// dispatches the navigation through it.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var user *session.User
	var ws *session.Workspace
	if sess != nil {
		user = sess.User
		ws = sess.Workspace
	}

	dispatcher := routing.NewDispatcher(routing.DispatcherConfig{
		Routes:    routing.BuildRoutes(user, ws, s.consolePages()),
		AppTitle:  s.cfg.Console.AppTitle,
		HomePath:  s.cfg.Console.HomePath,
		LoginPath: s.cfg.Console.LoginPath,
		Metadata:  routing.HeaderMetadata{},
		Root:      true,
		Tracker: func(path string) {
			s.logger.Debug("page view", "path", path)
		},
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "page not found")
		}),
		Logger: s.logger,
	})

	dispatcher.ServeHTTP(w, r)
}
