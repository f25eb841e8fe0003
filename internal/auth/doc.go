// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

// Package auth provides the authentication core for the SL Portal site.
//
// # Domain Types
//
// Domain types (User, Session, CSRFToken, LoginAttemptState) should be
// created through their constructors or the Service facade:
//   - NewUser - creates a User with validated credentials
//   - NewSession - creates a Session with validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - register, login, logout, session check
//   - Governor - per-username failed-login tracking and lockout
//   - CSRFGuard - per-browser-session anti-forgery tokens
//
// All durable state lives behind the repository interfaces; the package
// holds no in-process mutable state, so every request can be handled
// concurrently against a shared store.
package auth
