// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/slportal/slportal/internal/auth"
)

type ctxKey int

const (
	userCtxKey ctxKey = iota
	sessionCtxKey
)

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	u, _ := ctx.Value(userCtxKey).(*auth.User)
	return u
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionCtxKey).(*auth.Session)
	return s
}

// securityHeaders sets baseline response headers on every request.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with chi's request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// requireSession resolves the session cookie and rejects the request
// when it does not map to a live session. The user and session are
// placed on the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sess, err := s.auth.CheckSession(r.Context(), sessionToken(r))
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		if user == nil {
			s.clearSessionCookie(w)
			writeUnauthorized(w, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey, user)
		ctx = context.WithValue(ctx, sessionCtxKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route on the authenticated user's role. It must
// sit inside requireSession.
func (s *Server) requireRole(min auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil || !user.Role.AtLeast(min) {
				writeForbidden(w, "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// verifyCSRF checks the CSRF token on state-changing requests. The
// token rides in the X-CSRF-Token header and must match the one issued
// for the caller's browser session.
func (s *Server) verifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		ok, err := s.guard.Verify(r.Context(), browserSessionID(r), r.Header.Get("X-CSRF-Token"))
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		if !ok {
			writeForbidden(w, "invalid or missing CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
