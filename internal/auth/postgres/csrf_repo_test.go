// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slportal/slportal/internal/auth"
)

func TestCSRFRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		created := time.Now()
		mock.ExpectQuery(`SELECT browser_session_id, token, created_at`).
			WithArgs("bsid-1").
			WillReturnRows(pgxmock.NewRows([]string{"browser_session_id", "token", "created_at"}).
				AddRow("bsid-1", "tokenvalue", created))

		repo := NewCSRFRepository(mock)
		token, err := repo.Get(ctx, "bsid-1")
		require.NoError(t, err)
		assert.Equal(t, "tokenvalue", token.Token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT browser_session_id, token, created_at`).
			WithArgs("bsid-unknown").
			WillReturnRows(pgxmock.NewRows([]string{"browser_session_id", "token", "created_at"}))

		repo := NewCSRFRepository(mock)
		_, err = repo.Get(ctx, "bsid-unknown")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCSRFRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a new token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		created := time.Now()
		token := &auth.CSRFToken{BrowserSessionID: "bsid-1", Token: "tokenvalue", CreatedAt: created}

		mock.ExpectQuery(`INSERT INTO csrf_tokens`).
			WithArgs("bsid-1", "tokenvalue", created).
			WillReturnRows(pgxmock.NewRows([]string{"browser_session_id", "token", "created_at"}).
				AddRow("bsid-1", "tokenvalue", created))

		repo := NewCSRFRepository(mock)
		saved, err := repo.Save(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "tokenvalue", saved.Token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent double issue keeps the first token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		created := time.Now()
		token := &auth.CSRFToken{BrowserSessionID: "bsid-1", Token: "loservalue", CreatedAt: created}

		// The upsert returns the row that won the race, not the input.
		mock.ExpectQuery(`INSERT INTO csrf_tokens`).
			WithArgs("bsid-1", "loservalue", created).
			WillReturnRows(pgxmock.NewRows([]string{"browser_session_id", "token", "created_at"}).
				AddRow("bsid-1", "winnervalue", created.Add(-time.Second)))

		repo := NewCSRFRepository(mock)
		saved, err := repo.Save(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "winnervalue", saved.Token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
