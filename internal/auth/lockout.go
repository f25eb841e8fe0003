// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// Lockout defaults.
const (
	// DefaultLockoutThreshold is the consecutive-failure count that
	// trips a lockout.
	DefaultLockoutThreshold = 5

	// DefaultLockoutDuration is the fixed lockout window. The window is
	// not sliding: failures during an active lockout are rejected before
	// they reach the counter, so nothing extends it.
	DefaultLockoutDuration = 15 * time.Minute
)

// LockoutPolicy configures the login-attempt governor. Enforcement is a
// configuration switch so a deployment can disable it, but the default
// is on and a single Governor instance guards every login entry point.
type LockoutPolicy struct {
	Enabled   bool
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the standard policy: enabled, 5 failures,
// 15-minute window.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Enabled:   true,
		Threshold: DefaultLockoutThreshold,
		Duration:  DefaultLockoutDuration,
	}
}

// LoginAttemptState is the per-username failure counter. It is keyed by
// the submitted username rather than the user row so failures against
// unknown usernames are tracked identically to real ones.
type LoginAttemptState struct {
	Username       string
	FailedAttempts int
	LockedUntil    *time.Time
}

// Locked returns true if the state is locked out at the given time.
func (s *LoginAttemptState) Locked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

// IsLockedOut returns true if the lockout time is in the future.
func IsLockedOut(lockedUntil *time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(time.Now())
}

// LoginAttemptRepository manages per-username failure counters. The
// failure path must be a single atomic read-modify-write per username:
// two concurrent failures both reading "4" and neither tripping the
// lockout would let an attacker bypass it with parallel guesses.
type LoginAttemptRepository interface {
	// Get retrieves the attempt state for a username.
	// Returns ErrNotFound if the username has no recorded failures.
	Get(ctx context.Context, username string) (*LoginAttemptState, error)

	// RecordFailure atomically increments the failure counter and sets
	// the lockout timestamp when the counter reaches the threshold.
	// An already-active lockout is never extended. Returns the new state.
	RecordFailure(ctx context.Context, username string, threshold int, lockout time.Duration) (*LoginAttemptState, error)

	// RecordSuccess resets the counter and clears any lockout.
	RecordSuccess(ctx context.Context, username string) error
}

// Governor enforces the lockout policy over a LoginAttemptRepository.
type Governor struct {
	attempts LoginAttemptRepository
	policy   LockoutPolicy
}

// NewGovernor creates a Governor.
func NewGovernor(attempts LoginAttemptRepository, policy LockoutPolicy) (*Governor, error) {
	if attempts == nil {
		return nil, oops.Errorf("login attempt repository is required")
	}
	if policy.Enabled {
		if policy.Threshold <= 0 {
			return nil, oops.Errorf("lockout threshold must be positive")
		}
		if policy.Duration <= 0 {
			return nil, oops.Errorf("lockout duration must be positive")
		}
	}
	return &Governor{attempts: attempts, policy: policy}, nil
}

// BeforeAttempt rejects the login up front if the username is locked out.
func (g *Governor) BeforeAttempt(ctx context.Context, username string) error {
	if !g.policy.Enabled {
		return nil
	}

	state, err := g.attempts.Get(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOCKOUT_CHECK_FAILED").
			With("operation", "get login attempts").
			Wrap(err)
	}

	if state.Locked(time.Now()) {
		return oops.Code(CodeAccountLocked).
			With("locked_until", state.LockedUntil).
			Errorf("account is temporarily locked, try again later")
	}
	return nil
}

// RecordFailure counts a failed login against the submitted username.
func (g *Governor) RecordFailure(ctx context.Context, username string) error {
	if !g.policy.Enabled {
		return nil
	}
	_, err := g.attempts.RecordFailure(ctx, username, g.policy.Threshold, g.policy.Duration)
	if err != nil {
		return oops.Code("AUTH_LOCKOUT_RECORD_FAILED").
			With("operation", "record login failure").
			Wrap(err)
	}
	return nil
}

// RecordSuccess clears the failure counter after a successful login.
func (g *Governor) RecordSuccess(ctx context.Context, username string) error {
	if !g.policy.Enabled {
		return nil
	}
	if err := g.attempts.RecordSuccess(ctx, username); err != nil {
		return oops.Code("AUTH_LOCKOUT_RESET_FAILED").
			With("operation", "reset login failures").
			Wrap(err)
	}
	return nil
}
