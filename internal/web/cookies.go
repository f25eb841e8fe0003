// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package web

import (
	"net/http"
	"time"
)

// Cookie names.
const (
	SessionCookieName = "sl_session"
	CSRFCookieName    = "sl_csrf"
)

// setSessionCookie writes the opaque session token. With remember set
// the cookie persists for the remember window; otherwise it is a
// browser-session cookie and expiry is enforced server-side.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, remember bool) {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.MaxAge = int(s.rememberLifetime / time.Second)
	}
	http.SetCookie(w, c)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// setCSRFCookie writes the browser-session identifier used to key CSRF
// tokens. It lives only for the browser session.
func (s *Server) setCSRFCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func browserSessionID(r *http.Request) string {
	c, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
