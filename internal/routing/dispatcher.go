// ABOUTME: Route authorization dispatcher resolving navigation paths to outcomes
// ABOUTME: Enforces access-before-auth ordering and sets the page title on render

package routing

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/relaydesk/console-gateway/internal/session"
)

// Default console paths.
const (
	DefaultHomePath  = "/"
	DefaultLoginPath = "/login"
)

// ResolutionKind classifies the outcome of a dispatch.
type ResolutionKind int

const (
	// ResolutionNone means no route matched; the surrounding application
	// supplies the catch-all.
	ResolutionNone ResolutionKind = iota
	// ResolutionRedirect means the navigation is redirected to Target.
	ResolutionRedirect
	// ResolutionRender means View renders with Title installed.
	ResolutionRender
)

// Resolution is the single outcome produced per navigation change.
type Resolution struct {
	Kind   ResolutionKind
	Target string
	View   http.Handler
	Title  string
}

// DispatcherConfig contains configuration options for a Dispatcher.
type DispatcherConfig struct {
	Routes []RouteDescriptor

	// BasePath is the current base path prefix; route paths resolve
	// relative to it, following the nested-router convention.
	BasePath string

	// AppTitle is the console title; rendered routes install
	// "<AppTitle> - <route title>", or just AppTitle when untitled.
	AppTitle string

	HomePath  string
	LoginPath string

	// Metadata receives the page title side effect on render.
	Metadata PageMetadata

	// Root marks this dispatcher as the document-root instance, the one
	// responsible for page-view tracking.
	Root    bool
	Tracker func(path string)

	// NotFound handles navigations no route matches. Nil falls back to a
	// plain 404.
	NotFound http.Handler

	Logger *slog.Logger
}

// Dispatcher translates an ordered route table into exactly one outcome per
// navigation. Matching is first-wins in declaration order; ties between
// structurally overlapping paths are broken by position, never specificity.
type Dispatcher struct {
	routes    []RouteDescriptor
	basePath  string
	appTitle  string
	homePath  string
	loginPath string
	metadata  PageMetadata
	root      bool
	tracker   func(string)
	notFound  http.Handler
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher from the given configuration.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	homePath := cfg.HomePath
	if homePath == "" {
		homePath = DefaultHomePath
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	metadata := cfg.Metadata
	if metadata == nil {
		metadata = NopMetadata{}
	}

	return &Dispatcher{
		routes:    cfg.Routes,
		basePath:  strings.TrimSuffix(cfg.BasePath, "/"),
		appTitle:  cfg.AppTitle,
		homePath:  homePath,
		loginPath: loginPath,
		metadata:  metadata,
		root:      cfg.Root,
		tracker:   cfg.Tracker,
		notFound:  cfg.NotFound,
		logger:    logger.With("component", "routing"),
	}
}

// Resolve maps a navigation path to its outcome for a session with the given
// authentication state. The checks run in a fixed order that callers rely on:
//
//  1. A redirect entry wins as soon as its path matches.
//  2. Access denial redirects home regardless of authentication, so an
//     unauthenticated user without access goes home, not to login.
//  3. Missing authentication redirects to the login path, unless the
//     requested path is itself the login path.
//  4. Otherwise the route renders with its title.
//
// An unmatched path resolves to ResolutionNone; there is no internal failure
// mode.
func (d *Dispatcher) Resolve(path string, authenticated bool) Resolution {
	for _, rd := range d.routes {
		full := d.fullPath(rd.Path)
		if !matches(full, path, rd.ExactMatch) {
			continue
		}

		if rd.RedirectTo != "" {
			return Resolution{Kind: ResolutionRedirect, Target: rd.RedirectTo}
		}

		if rd.RequiresAuth {
			return d.guard(rd, full, authenticated)
		}

		return Resolution{Kind: ResolutionRender, View: rd.View, Title: d.pageTitle(rd.Title)}
	}

	return Resolution{Kind: ResolutionNone}
}

// guard gates a single authenticated route. Access denial is checked strictly
// before authentication, which is checked strictly before rendering.
func (d *Dispatcher) guard(rd RouteDescriptor, fullPath string, authenticated bool) Resolution {
	if !rd.AccessGranted {
		return Resolution{Kind: ResolutionRedirect, Target: d.homePath}
	}

	if !authenticated && fullPath != d.loginPath {
		return Resolution{Kind: ResolutionRedirect, Target: d.loginPath}
	}

	return Resolution{Kind: ResolutionRender, View: rd.View, Title: d.pageTitle(rd.Title)}
}

// ServeHTTP dispatches the request path through the route table, reading the
// authentication state from the session context.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	authenticated := sess != nil && sess.User != nil

	res := d.Resolve(r.URL.Path, authenticated)

	if d.root && d.tracker != nil {
		d.tracker(r.URL.Path)
	}

	switch res.Kind {
	case ResolutionRedirect:
		d.logger.Debug("redirecting", "path", r.URL.Path, "target", res.Target)
		http.Redirect(w, r, res.Target, http.StatusSeeOther)

	case ResolutionRender:
		d.metadata.SetTitle(w, res.Title)
		res.View.ServeHTTP(w, r)

	default:
		if d.notFound != nil {
			d.notFound.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	}
}

// fullPath joins the base path prefix with a route path.
func (d *Dispatcher) fullPath(routePath string) string {
	if routePath == "" {
		if d.basePath == "" {
			return "/"
		}
		return d.basePath
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	return d.basePath + routePath
}

// pageTitle builds the installed page title: "<app> - <route>" or just the
// app title when the route carries none.
func (d *Dispatcher) pageTitle(routeTitle string) string {
	if routeTitle == "" {
		return d.appTitle
	}
	return d.appTitle + " - " + routeTitle
}

// matches reports whether a request path structurally matches a route path.
// Exact matching requires equality (a sole trailing slash is tolerated);
// prefix matching allows further path segments below the route path.
func matches(routePath, requestPath string, exact bool) bool {
	if exact {
		return requestPath == routePath || requestPath == routePath+"/"
	}
	if routePath == "/" {
		return true
	}
	return requestPath == routePath || strings.HasPrefix(requestPath, routePath+"/")
}
