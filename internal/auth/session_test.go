// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slportal/slportal/internal/auth"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Run("token and hash have expected shape", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, auth.SessionTokenBytes*2) // hex
		assert.Len(t, hash, 64)                        // sha256 hex
		assert.Equal(t, auth.HashSessionToken(token), hash)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		token1, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		token2, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.NotEqual(t, token1, token2)
	})
}

func TestVerifySessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	assert.True(t, auth.VerifySessionToken(token, hash))
	assert.False(t, auth.VerifySessionToken("wrong", hash))
	assert.False(t, auth.VerifySessionToken("", hash))
	assert.False(t, auth.VerifySessionToken(token, ""))
}

func TestNewSession(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	t.Run("creates a valid session", func(t *testing.T) {
		session, err := auth.NewSession(1, "somehash", "agent/1.0", "203.0.113.9", expiry)
		require.NoError(t, err)
		assert.NotEqual(t, "", session.ID.String())
		assert.Equal(t, int64(1), session.UserID)
		assert.Equal(t, "agent/1.0", session.UserAgent)
		assert.Equal(t, "203.0.113.9", session.IPAddress)
		assert.Equal(t, expiry, session.ExpiresAt)
		assert.False(t, session.CreatedAt.IsZero())
	})

	t.Run("rejects non-positive user ID", func(t *testing.T) {
		_, err := auth.NewSession(0, "somehash", "", "", expiry)
		assert.Error(t, err)
	})

	t.Run("rejects empty token hash", func(t *testing.T) {
		_, err := auth.NewSession(1, "", "", "", expiry)
		assert.Error(t, err)
	})

	t.Run("rejects zero expiry", func(t *testing.T) {
		_, err := auth.NewSession(1, "somehash", "", "", time.Time{})
		assert.Error(t, err)
	})
}

func TestSessionExpiry(t *testing.T) {
	session, err := auth.NewSession(1, "somehash", "", "", time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.False(t, session.IsExpired())
	assert.False(t, session.IsExpiredAt(session.ExpiresAt)) // boundary is still valid
	assert.True(t, session.IsExpiredAt(session.ExpiresAt.Add(time.Nanosecond)))
}
