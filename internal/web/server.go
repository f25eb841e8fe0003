// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

// Package web exposes the portal's HTTP API: session-based
// authentication, announcements, and game-server status. Handlers talk
// to the domain services through narrow interfaces so tests can swap in
// fakes.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/slportal/slportal/internal/auth"
	"github.com/slportal/slportal/internal/content"
	"github.com/slportal/slportal/internal/observability"
)

// AuthService is the slice of the auth facade the handlers need.
type AuthService interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.User, error)
	Login(ctx context.Context, input auth.LoginInput) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CheckSession(ctx context.Context, token string) (*auth.User, *auth.Session, error)
}

// CSRFGuard issues and verifies per-browser-session CSRF tokens.
type CSRFGuard interface {
	Issue(ctx context.Context, browserSessionID string) (string, error)
	Verify(ctx context.Context, browserSessionID, presented string) (bool, error)
}

// ContentService serves announcements and site settings.
type ContentService interface {
	ListAnnouncements(ctx context.Context, opts content.ListOptions) ([]*content.Announcement, error)
	CreateAnnouncement(ctx context.Context, input content.CreateAnnouncementInput) (*content.Announcement, error)
	ServerStatus(ctx context.Context) (*content.ServerStatus, error)
	Settings(ctx context.Context) (map[string]string, error)
}

// Config wires a Server's dependencies.
type Config struct {
	Addr             string
	Auth             AuthService
	Guard            CSRFGuard
	Content          ContentService
	Metrics          *observability.Metrics
	Logger           *slog.Logger
	SecureCookies    bool
	RememberLifetime time.Duration
}

// Server is the portal HTTP server.
type Server struct {
	auth             AuthService
	guard            CSRFGuard
	content          ContentService
	metrics          *observability.Metrics
	logger           *slog.Logger
	secureCookies    bool
	rememberLifetime time.Duration

	httpServer *http.Server
	listener   net.Listener
	running    atomic.Bool
}

// NewServer validates the config and builds the server with its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if cfg.Guard == nil {
		return nil, oops.Errorf("csrf guard is required")
	}
	if cfg.Content == nil {
		return nil, oops.Errorf("content service is required")
	}
	if cfg.Metrics == nil {
		return nil, oops.Errorf("metrics are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RememberLifetime <= 0 {
		cfg.RememberLifetime = 30 * 24 * time.Hour
	}

	s := &Server{
		auth:             cfg.Auth,
		guard:            cfg.Guard,
		content:          cfg.Content,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		secureCookies:    cfg.SecureCookies,
		rememberLifetime: cfg.RememberLifetime,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Router builds the route tree. Exposed so tests can drive the full
// middleware stack through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(securityHeaders)
	r.Use(s.httpMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/csrf", s.handleCSRFToken)
			r.Get("/session", s.handleSession)
			r.Group(func(r chi.Router) {
				r.Use(s.verifyCSRF)
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
				r.Post("/logout", s.handleLogout)
			})
		})

		r.Get("/status", s.handleStatus)
		r.Get("/settings", s.handleSettings)

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", s.handleListAnnouncements)
			r.Group(func(r chi.Router) {
				r.Use(s.requireSession)
				r.Use(s.requireRole(auth.RoleModerator))
				r.Use(s.verifyCSRF)
				r.Post("/", s.handleCreateAnnouncement)
			})
		})
	})

	return r
}

// httpMetrics counts requests by route pattern and status class.
func (s *Server) httpMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		class := strconv.Itoa(ww.Status()/100) + "xx"
		s.metrics.HTTPRequestsTotal.WithLabelValues(route, class).Inc()
	})
}

// Start begins serving. The returned channel receives the terminal
// listener error, if any.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("server already running")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("SERVER_LISTEN_FAILED").
			With("addr", s.httpServer.Addr).
			Wrap(err)
	}
	s.listener = ln

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return errCh, nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
