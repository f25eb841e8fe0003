// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slportal/slportal/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})

	t.Run("custom params are embedded in the hash", func(t *testing.T) {
		hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
			Time:   2,
			Memory: 32 * 1024,
		})
		hash, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.Contains(t, hash, "m=32768,t=2,p=4")
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("correctpassword", hash))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("wrongpassword", hash))
	})

	t.Run("verifies hashes created with non-default params", func(t *testing.T) {
		weak := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 2, Memory: 16 * 1024})
		hash, err := weak.Hash("password")
		require.NoError(t, err)
		// The default hasher reads the parameters from the hash itself.
		assert.True(t, hasher.Verify("password", hash))
	})

	// A corrupted stored hash must read as a credential mismatch, never
	// break the login path with an error.
	t.Run("malformed hashes verify false", func(t *testing.T) {
		malformed := []string{
			"",
			"not-a-valid-hash",
			"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$argon2id$v=19$invalid$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA",
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!",
			"$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
		}
		for _, hash := range malformed {
			assert.False(t, hasher.Verify("password", hash), "hash %q", hash)
		}
	})
}
