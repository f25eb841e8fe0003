// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified when a username doesn't exist so that the
// response time matches a real verification. It is not a credential; it
// matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing-attack prevention.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service is the authentication facade: it orchestrates the validator,
// hasher, governor, and session store behind the four public operations
// (register, login, logout, session check).
type Service struct {
	users    UserRepository
	sessions SessionRepository
	governor *Governor
	hasher   PasswordHasher
	lifetime time.Duration
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSessionLifetime overrides the sliding session lifetime.
func WithSessionLifetime(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithLogger sets the logger used for security events and best-effort
// failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the auth facade. All dependencies are required.
func NewService(users UserRepository, sessions SessionRepository, governor *Governor, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if governor == nil {
		return nil, oops.Errorf("login attempt governor is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}

	s := &Service{
		users:    users,
		sessions: sessions,
		governor: governor,
		hasher:   hasher,
		lifetime: DefaultSessionLifetime,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SessionLifetime returns the sliding session lifetime, which callers
// need for cookie expiry.
func (s *Service) SessionLifetime() time.Duration {
	return s.lifetime
}

// RegisterInput carries raw registration fields.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register validates the input, hashes the password, and persists a new
// active user. Uniqueness violations surface as ErrConflict-wrapped
// errors, distinct from validation failures.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := ValidateUsername(input.Username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := ValidatePasswordConfirmation(input.Password, input.ConfirmPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(input.Username, input.Email, hash)
	if err != nil {
		return nil, err
	}

	// The store's unique constraints are the authoritative uniqueness
	// check; a racing duplicate insert still maps to Conflict.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, oops.Code(CodeConflict).
				With("username", input.Username).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"event", "user_registered",
		"user_id", user.ID,
		"username", user.Username)

	return user, nil
}

// LoginInput carries raw login fields. UserAgent and IPAddress are audit
// metadata recorded on the session, never used for authorization.
type LoginInput struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is a successful login: the public user, the persisted
// session, and the plaintext token for the cookie.
type LoginResult struct {
	User    *User
	Session *Session
	Token   string
}

// Login authenticates a user and creates a session.
//
// The governor is consulted first, so a locked account fails regardless
// of password correctness. Unknown usernames verify against a dummy hash
// and record a failure against the submitted username, so the response
// neither reveals existence nor skips the lockout counter. Account
// status is checked only after the password succeeds, to avoid leaking
// status before authentication.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, oops.Code(CodeInvalidFormat).Errorf("username and password are required")
	}

	if err := s.governor.BeforeAttempt(ctx, input.Username); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetByUsername(ctx, input.Username)

	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// fall through to dummy verification
	default:
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	valid := s.hasher.Verify(input.Password, targetHash)

	if !userExists || !valid {
		if err := s.governor.RecordFailure(ctx, input.Username); err != nil {
			s.logError(ctx, "recording login failure", err)
		}
		return nil, oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
	}

	switch user.Status {
	case StatusBanned:
		return nil, oops.Code(CodeAccountDisabled).
			With("status", string(StatusBanned)).
			Errorf("account is banned")
	case StatusSuspended:
		return nil, oops.Code(CodeAccountDisabled).
			With("status", string(StatusSuspended)).
			Errorf("account is suspended")
	}

	if err := s.governor.RecordSuccess(ctx, input.Username); err != nil {
		// Best effort: a stuck counter must not block a valid login.
		s.logError(ctx, "resetting login failures", err)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logError(ctx, "updating last login", err)
	} else {
		user.LastLoginAt = &now
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user.ID, tokenHash, input.UserAgent, input.IPAddress, now.Add(s.lifetime))
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		"event", "user_login",
		"user_id", user.ID,
		"username", user.Username,
		"ip", input.IPAddress)

	return &LoginResult{User: user, Session: session, Token: token}, nil
}

// Logout destroys the session for the given token. Idempotent: an
// unknown or already-destroyed token is still a successful logout.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged out", "event", "user_logout")
	return nil
}

// CheckSession resolves a session token to its user. A missing, expired,
// or otherwise invalid token returns (nil, nil, nil): not authenticated
// is a normal negative result, not a fault. On success the session's
// expiry slides forward by the configured lifetime, so active users are
// never logged out mid-session while idle sessions still expire.
func (s *Service) CheckSession(ctx context.Context, token string) (*User, *Session, error) {
	if token == "" {
		return nil, nil, nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, oops.Code("AUTH_SESSION_CHECK_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := time.Now()
	if session.IsExpiredAt(now) {
		return nil, nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, oops.Code("AUTH_SESSION_CHECK_FAILED").
			With("operation", "get session user").
			Wrap(err)
	}
	if user.Status != StatusActive {
		return nil, nil, nil
	}

	// Sliding renewal. This check mutates state: a failed touch only
	// costs the renewal, not the validation.
	session.ExpiresAt = now.Add(s.lifetime)
	session.LastSeenAt = now
	if err := s.sessions.Touch(ctx, session.ID, session.ExpiresAt, session.LastSeenAt); err != nil {
		s.logError(ctx, "touching session", err)
	}

	return user, session, nil
}

// SweepExpiredSessions deletes expired session rows and returns the
// count. Validation already treats expired rows as absent; this keeps
// the table small.
func (s *Service) SweepExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("AUTH_SESSION_SWEEP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return n, nil
}

func (s *Service) logError(ctx context.Context, during string, err error) {
	s.logger.ErrorContext(ctx, "auth operation degraded", "during", during, "error", err)
}
