// ABOUTME: Declarative route descriptors for the console navigation table
// ABOUTME: Access predicates are evaluated at route-build time, never by the dispatcher

package routing

import (
	"net/http"

	"github.com/relaydesk/console-gateway/internal/session"
)

// RouteDescriptor is one materialized entry of the console route table.
// At most one of RedirectTo and View is meaningful: a non-empty RedirectTo
// makes the entry a pure redirect and View/RequiresAuth are ignored.
//
// Paths need not be unique. Entries are tried in declaration order and the
// first structural match wins, so callers must order routes from
// most-specific to least-specific (or most-restrictive to least).
type RouteDescriptor struct {
	Path         string
	RequiresAuth bool
	ExactMatch   bool
	View         http.Handler
	RedirectTo   string

	// AccessGranted is precomputed at route-build time. The dispatcher
	// performs no permission logic of its own; it only gates on this flag.
	AccessGranted bool

	// Title sets the page title when the route renders.
	Title string
}

// PageDescriptor is the form feature modules register their pages in, before
// the per-session route table is materialized.
type PageDescriptor struct {
	Path         string
	RequiresAuth bool
	ExactMatch   bool
	View         http.Handler
	RedirectTo   string
	Title        string

	// Access decides whether the current user may reach this page. Nil
	// grants access unconditionally. The predicate must be pure.
	Access func(user *session.User, ws *session.Workspace) bool
}

// BuildRoutes materializes the route table for one session, evaluating every
// access predicate against the user and workspace. The resulting descriptors
// carry plain booleans so the dispatcher stays decoupled from permission
// logic.
func BuildRoutes(user *session.User, ws *session.Workspace, pages []PageDescriptor) []RouteDescriptor {
	routes := make([]RouteDescriptor, 0, len(pages))
	for _, p := range pages {
		granted := true
		if p.Access != nil {
			granted = p.Access(user, ws)
		}
		routes = append(routes, RouteDescriptor{
			Path:          p.Path,
			RequiresAuth:  p.RequiresAuth,
			ExactMatch:    p.ExactMatch,
			View:          p.View,
			RedirectTo:    p.RedirectTo,
			AccessGranted: granted,
			Title:         p.Title,
		})
	}
	return routes
}
