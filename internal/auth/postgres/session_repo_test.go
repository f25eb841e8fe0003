// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slportal/slportal/internal/auth"
)

func TestSessionRepository_Create(t *testing.T) {
	ctx := context.Background()

	session, err := auth.NewSession(7, "tokenhash", "agent/1.0", "203.0.113.9", time.Now().Add(time.Hour))
	require.NoError(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(session.ID.String(), session.UserID, session.TokenHash, session.UserAgent,
			session.IPAddress, session.ExpiresAt, session.CreatedAt, session.LastSeenAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewSessionRepository(mock)
	require.NoError(t, repo.Create(ctx, session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByTokenHash(t *testing.T) {
	ctx := context.Background()

	t.Run("parses the stored ULID", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		now := time.Now()
		rows := pgxmock.NewRows([]string{
			"id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at", "last_seen_at",
		}).AddRow(id.String(), int64(7), "tokenhash", "agent/1.0", "203.0.113.9", now.Add(time.Hour), now, now)

		mock.ExpectQuery(`SELECT id, user_id, token_hash`).
			WithArgs("tokenhash").
			WillReturnRows(rows)

		repo := NewSessionRepository(mock)
		session, err := repo.GetByTokenHash(ctx, "tokenhash")
		require.NoError(t, err)
		assert.Equal(t, id, session.ID)
		assert.Equal(t, int64(7), session.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, user_id, token_hash`).
			WithArgs("unknownhash").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at", "last_seen_at",
			}))

		repo := NewSessionRepository(mock)
		_, err = repo.GetByTokenHash(ctx, "unknownhash")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt ULID is an error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{
			"id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at", "last_seen_at",
		}).AddRow("not-a-ulid", int64(7), "tokenhash", "", "", now.Add(time.Hour), now, now)

		mock.ExpectQuery(`SELECT id, user_id, token_hash`).
			WithArgs("tokenhash").
			WillReturnRows(rows)

		repo := NewSessionRepository(mock)
		_, err = repo.GetByTokenHash(ctx, "tokenhash")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSessionRepository_Touch(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	expires := time.Now().Add(time.Hour)
	seen := time.Now()

	t.Run("updates the timestamps", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions SET expires_at`).
			WithArgs(id.String(), expires, seen).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewSessionRepository(mock)
		assert.NoError(t, repo.Touch(ctx, id, expires, seen))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing session maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions SET expires_at`).
			WithArgs(id.String(), expires, seen).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewSessionRepository(mock)
		err = repo.Touch(ctx, id, expires, seen)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSessionRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete by token hash is idempotent", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM sessions WHERE token_hash`).
			WithArgs("unknownhash").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := NewSessionRepository(mock)
		assert.NoError(t, repo.DeleteByTokenHash(ctx, "unknownhash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete expired returns the count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM sessions WHERE expires_at`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		repo := NewSessionRepository(mock)
		n, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
