// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint (username, email)
// is violated on create.
var ErrConflict = errors.New("already exists")

// Error codes carried on oops errors raised by this package. The web
// layer maps these to HTTP status codes; everything not listed there is
// treated as a storage fault and surfaced as a generic 500.
const (
	CodeInvalidFormat      = "AUTH_INVALID_FORMAT"
	CodeWeakPassword       = "AUTH_WEAK_PASSWORD"
	CodePasswordMismatch   = "AUTH_PASSWORD_MISMATCH"
	CodeConflict           = "AUTH_CONFLICT"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeAccountDisabled    = "AUTH_ACCOUNT_DISABLED"
	CodeCSRFFailure        = "AUTH_CSRF_FAILURE"
)
