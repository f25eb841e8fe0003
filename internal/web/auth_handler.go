// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package web

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/slportal/slportal/internal/auth"
	"github.com/slportal/slportal/pkg/errutil"
)

const maxBodyBytes = 1 << 16

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeBadRequest(w, "malformed request body")
		return false
	}
	return true
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(registerOutcome(err)).Inc()
		writeError(w, s.logger, err)
		return
	}

	s.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	writeCreated(w, "registration successful", user.Public())
}

func registerOutcome(err error) string {
	switch errutil.Code(err) {
	case auth.CodeConflict:
		return "conflict"
	case auth.CodeInvalidFormat, auth.CodeWeakPassword, auth.CodePasswordMismatch:
		return "invalid"
	default:
		return "error"
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.auth.Login(r.Context(), auth.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	})
	if err != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
		writeError(w, s.logger, err)
		return
	}

	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.metrics.SessionsCreatedTotal.Inc()
	s.setSessionCookie(w, result.Token, req.Remember)
	writeOK(w, "login successful", result.User.Public())
}

func loginOutcome(err error) string {
	switch errutil.Code(err) {
	case auth.CodeInvalidCredentials:
		return "invalid_credentials"
	case auth.CodeAccountLocked:
		return "locked"
	case auth.CodeAccountDisabled:
		return "disabled"
	default:
		return "error"
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), sessionToken(r)); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.metrics.SessionsDestroyedTotal.Inc()
	s.clearSessionCookie(w)
	writeOK(w, "logged out", nil)
}

// handleSession reports whether the caller holds a live session. An
// absent or stale cookie is not an error; it simply reads logged out.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, _, err := s.auth.CheckSession(r.Context(), sessionToken(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if user == nil {
		s.clearSessionCookie(w)
		writeOK(w, "", map[string]any{"logged_in": false})
		return
	}
	writeOK(w, "", map[string]any{"logged_in": true, "user": user.Public()})
}

// handleCSRFToken issues the CSRF token for the caller's browser
// session, minting the browser-session cookie on first contact. The
// same browser session always receives the same token.
func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	id := browserSessionID(r)
	if id == "" {
		var err error
		id, err = auth.GenerateBrowserSessionID()
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		s.setCSRFCookie(w, id)
	}

	token, err := s.guard.Issue(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeOK(w, "", map[string]any{"csrf_token": token})
}

// clientIP strips the port when the request address carries one. With
// the RealIP middleware in front the address may already be bare.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
