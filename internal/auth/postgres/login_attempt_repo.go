// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/slportal/slportal/internal/auth"
)

// LoginAttemptRepository implements auth.LoginAttemptRepository using
// PostgreSQL. Counters are keyed by lowercased username.
type LoginAttemptRepository struct {
	pool poolIface
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository.
func NewLoginAttemptRepository(pool poolIface) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: pool}
}

// Get retrieves the attempt state for a username.
func (r *LoginAttemptRepository) Get(ctx context.Context, username string) (*auth.LoginAttemptState, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT username, failed_attempts, locked_until
		FROM login_attempts
		WHERE username = LOWER($1)
	`, username)

	var state auth.LoginAttemptState
	err := row.Scan(&state.Username, &state.FailedAttempts, &state.LockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("LOGIN_ATTEMPTS_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("LOGIN_ATTEMPTS_GET_FAILED").
			With("operation", "get login attempts").
			With("username", username).
			Wrap(err)
	}
	return &state, nil
}

// RecordFailure increments the failure counter and sets the lockout
// timestamp when the new count reaches the threshold. The entire
// read-modify-write is one upsert, so the row lock serializes concurrent
// failures for the same username and no increment is ever lost. An
// active lockout is carried over unchanged (fixed window, not sliding).
func (r *LoginAttemptRepository) RecordFailure(ctx context.Context, username string, threshold int, lockout time.Duration) (*auth.LoginAttemptState, error) {
	lockedUntil := time.Now().Add(lockout)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO login_attempts (username, failed_attempts, locked_until)
		VALUES (LOWER($1), 1, CASE WHEN 1 >= $2::int THEN $3::timestamptz ELSE NULL END)
		ON CONFLICT (username) DO UPDATE SET
			failed_attempts = login_attempts.failed_attempts + 1,
			locked_until = CASE
				WHEN login_attempts.locked_until IS NOT NULL AND login_attempts.locked_until > now()
					THEN login_attempts.locked_until
				WHEN login_attempts.failed_attempts + 1 >= $2::int
					THEN $3::timestamptz
				ELSE NULL
			END
		RETURNING username, failed_attempts, locked_until
	`, username, threshold, lockedUntil)

	var state auth.LoginAttemptState
	if err := row.Scan(&state.Username, &state.FailedAttempts, &state.LockedUntil); err != nil {
		return nil, oops.Code("LOGIN_ATTEMPTS_RECORD_FAILED").
			With("operation", "upsert login failure").
			With("username", username).
			Wrap(err)
	}
	return &state, nil
}

// RecordSuccess resets the counter and clears any lockout. Removing the
// row entirely is equivalent to a zero counter and keeps the table to
// accounts that are actually failing.
func (r *LoginAttemptRepository) RecordSuccess(ctx context.Context, username string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM login_attempts WHERE username = LOWER($1)
	`, username)
	if err != nil {
		return oops.Code("LOGIN_ATTEMPTS_RESET_FAILED").
			With("operation", "delete login attempts").
			With("username", username).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.LoginAttemptRepository = (*LoginAttemptRepository)(nil)
