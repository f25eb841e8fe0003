// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/slportal/slportal/internal/auth"
)

// CSRFRepository implements auth.CSRFRepository using PostgreSQL.
type CSRFRepository struct {
	pool poolIface
}

// NewCSRFRepository creates a new CSRFRepository.
func NewCSRFRepository(pool poolIface) *CSRFRepository {
	return &CSRFRepository{pool: pool}
}

// Get retrieves the CSRF token for a browser session.
func (r *CSRFRepository) Get(ctx context.Context, browserSessionID string) (*auth.CSRFToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT browser_session_id, token, created_at
		FROM csrf_tokens
		WHERE browser_session_id = $1
	`, browserSessionID)

	var token auth.CSRFToken
	err := row.Scan(&token.BrowserSessionID, &token.Token, &token.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CSRF_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CSRF_GET_FAILED").
			With("operation", "get csrf token").
			Wrap(err)
	}
	return &token, nil
}

// Save stores a token for a browser session. On a concurrent double
// issue the first stored token wins and is returned, so both requests
// converge on one value.
func (r *CSRFRepository) Save(ctx context.Context, token *auth.CSRFToken) (*auth.CSRFToken, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO csrf_tokens (browser_session_id, token, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (browser_session_id) DO UPDATE SET
			token = csrf_tokens.token
		RETURNING browser_session_id, token, created_at
	`, token.BrowserSessionID, token.Token, token.CreatedAt)

	var saved auth.CSRFToken
	if err := row.Scan(&saved.BrowserSessionID, &saved.Token, &saved.CreatedAt); err != nil {
		return nil, oops.Code("CSRF_SAVE_FAILED").
			With("operation", "upsert csrf token").
			Wrap(err)
	}
	return &saved, nil
}

// Compile-time interface check.
var _ auth.CSRFRepository = (*CSRFRepository)(nil)
