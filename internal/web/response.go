// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/slportal/slportal/internal/auth"
	"github.com/slportal/slportal/internal/content"
	"github.com/slportal/slportal/pkg/errutil"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func writeCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// statusForCode maps domain error codes to HTTP status codes. Unknown
// codes are treated as internal failures.
func statusForCode(code string) int {
	switch code {
	case auth.CodeInvalidFormat, auth.CodeWeakPassword, auth.CodePasswordMismatch, content.CodeInvalid:
		return http.StatusBadRequest
	case auth.CodeConflict:
		return http.StatusConflict
	case auth.CodeInvalidCredentials, auth.CodeAccountLocked:
		return http.StatusUnauthorized
	case auth.CodeAccountDisabled, auth.CodeCSRFFailure:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error. Client errors carry the domain
// message; internal errors are logged in full server-side and the
// client sees only a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := errutil.Code(err)
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		errutil.LogError(logger, "request failed", err)
		writeJSON(w, status, Envelope{Success: false, Message: "an internal error occurred"})
		return
	}
	writeJSON(w, status, Envelope{Success: false, Message: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, Envelope{Success: false, Message: message})
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, Envelope{Success: false, Message: message})
}
