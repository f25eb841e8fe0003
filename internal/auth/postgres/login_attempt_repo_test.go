// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slportal/slportal/internal/auth"
)

func TestLoginAttemptRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored state", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		until := time.Now().Add(10 * time.Minute)
		mock.ExpectQuery(`SELECT username, failed_attempts, locked_until`).
			WithArgs("Alice01").
			WillReturnRows(pgxmock.NewRows([]string{"username", "failed_attempts", "locked_until"}).
				AddRow("alice01", 5, &until))

		repo := NewLoginAttemptRepository(mock)
		state, err := repo.Get(ctx, "Alice01")
		require.NoError(t, err)
		assert.Equal(t, "alice01", state.Username)
		assert.Equal(t, 5, state.FailedAttempts)
		require.NotNil(t, state.LockedUntil)
		assert.True(t, state.Locked(time.Now()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT username, failed_attempts, locked_until`).
			WithArgs("nobody99").
			WillReturnRows(pgxmock.NewRows([]string{"username", "failed_attempts", "locked_until"}))

		repo := NewLoginAttemptRepository(mock)
		_, err = repo.Get(ctx, "nobody99")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoginAttemptRepository_RecordFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the state produced by the upsert", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO login_attempts`).
			WithArgs("alice01", 5, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"username", "failed_attempts", "locked_until"}).
				AddRow("alice01", 3, (*time.Time)(nil)))

		repo := NewLoginAttemptRepository(mock)
		state, err := repo.RecordFailure(ctx, "alice01", 5, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 3, state.FailedAttempts)
		assert.Nil(t, state.LockedUntil)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the lockout set at the threshold", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		until := time.Now().Add(15 * time.Minute)
		mock.ExpectQuery(`INSERT INTO login_attempts`).
			WithArgs("alice01", 5, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"username", "failed_attempts", "locked_until"}).
				AddRow("alice01", 5, &until))

		repo := NewLoginAttemptRepository(mock)
		state, err := repo.RecordFailure(ctx, "alice01", 5, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 5, state.FailedAttempts)
		require.NotNil(t, state.LockedUntil)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO login_attempts`).
			WithArgs("alice01", 5, pgxmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		repo := NewLoginAttemptRepository(mock)
		_, err = repo.RecordFailure(ctx, "alice01", 5, 15*time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoginAttemptRepository_RecordSuccess(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the counter row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM login_attempts`).
			WithArgs("alice01").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := NewLoginAttemptRepository(mock)
		assert.NoError(t, repo.RecordSuccess(ctx, "alice01"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleting an absent row is fine", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM login_attempts`).
			WithArgs("nobody99").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := NewLoginAttemptRepository(mock)
		assert.NoError(t, repo.RecordSuccess(ctx, "nobody99"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
