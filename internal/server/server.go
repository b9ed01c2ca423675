// ABOUTME: HTTP server wiring the console routes and the activity API
// ABOUTME: Owns the store, the activity cache, and the per-agent presence monitors

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relaydesk/console-gateway/internal/config"
	"github.com/relaydesk/console-gateway/internal/notify"
	"github.com/relaydesk/console-gateway/internal/presence"
	"github.com/relaydesk/console-gateway/internal/session"
	"github.com/relaydesk/console-gateway/internal/store"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// sessionSweepInterval is how often expired console sessions are deleted.
const sessionSweepInterval = time.Hour

// notificationWindow is how long a lock-overlay toast is suppressed before it
// may fire again for the same agent.
const notificationWindow = 10 * time.Minute

// Server is the console gateway HTTP server.
type Server struct {
	cfg         *config.Config
	store       store.Store
	cache       *presence.ActivityCache
	verifier    *session.JWTVerifier
	notifier    notify.Notifier
	suppressor  *notify.Suppressor
	broadcaster *notify.Broadcaster
	monitors    *monitorRegistry
	logger      *slog.Logger
}

// New creates a server from configuration, opening the SQLite store and the
// Redis activity cache.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &Server{
		cfg:         cfg,
		store:       st,
		cache:       presence.NewActivityCache(rdb, cfg.Presence.SnapshotTTL, logger),
		verifier:    session.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		notifier:    notify.NewLogNotifier(logger),
		suppressor:  notify.NewSuppressor(notificationWindow, 4096),
		broadcaster: notify.NewBroadcaster(logger),
		monitors:    newMonitorRegistry(),
		logger:      logger.With("component", "server"),
	}, nil
}

// Handler builds the full route tree: the activity API behind the session
// middleware and the console navigation behind the optional variant, so the
// login page still renders for anonymous visitors.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	authed := session.Middleware(s.store, s.verifier)
	optional := session.OptionalMiddleware(s.store, s.verifier)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	mux.Handle("POST /api/logout", authed(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /api/activity", authed(http.HandlerFunc(s.handleActivity)))
	mux.Handle("POST /api/activity/heartbeat", authed(http.HandlerFunc(s.handleHeartbeat)))
	mux.Handle("POST /api/activity/connect", authed(http.HandlerFunc(s.handleConnect)))
	mux.Handle("GET /api/activity/watch", authed(http.HandlerFunc(s.handleWatch)))

	// Workspace administration
	admin := session.RequireAdmin()
	mux.Handle("GET /api/workspace/users", authed(admin(http.HandlerFunc(s.handleWorkspaceUsers))))
	mux.Handle("GET /api/workspace/online", authed(admin(http.HandlerFunc(s.handleOnlineAgents))))
	mux.Handle("PUT /api/workspace/flags", authed(admin(http.HandlerFunc(s.handleWorkspaceFlags))))

	// Console navigation through the route dispatcher
	mux.Handle("/", optional(http.HandlerFunc(s.handleConsole)))

	return mux
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases every resource.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.HTTPAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go s.sweepSessions(ctx)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", "error", err)
	}

	s.Close()
	return nil
}

// sweepSessions periodically deletes expired console sessions.
func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.DeleteExpiredConsoleSessions(ctx); err != nil {
				s.logger.Warn("sweeping expired sessions", "error", err)
			}
		}
	}
}

// Close releases all server resources.
func (s *Server) Close() {
	s.monitors.CloseAll()
	s.broadcaster.Close()
	s.suppressor.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", "error", err)
	}
}
