// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// SessionTokenBytes is the entropy of a session token.
	// 32 bytes = 256 bits = 64 hex characters.
	SessionTokenBytes = 32

	// DefaultSessionLifetime is the sliding-window session lifetime.
	DefaultSessionLifetime = time.Hour
)

// Session binds a random bearer token to a user. The plaintext token is
// held only by the client; the store keeps its SHA-256 hash. A session is
// valid iff it exists and its expiry is in the future; every successful
// validation slides the expiry forward.
type Session struct {
	ID         ulid.ULID
	UserID     int64
	TokenHash  string
	UserAgent  string // audit only, never enforced
	IPAddress  string // audit only, never enforced
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// NewSession creates a validated Session.
// UserAgent and IPAddress are optional audit metadata.
func NewSession(userID int64, tokenHash, userAgent, ipAddress string, expiresAt time.Time) (*Session, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		UserID:     userID,
		TokenHash:  tokenHash,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given
// time. Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token is
// sent to the client; only the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA-256 hash of a session token for
// storage and lookup.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks a plaintext token against a stored hash in
// constant time.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Touch slides the expiry and last-seen timestamps forward.
	Touch(ctx context.Context, id ulid.ULID, expiresAt, lastSeen time.Time) error

	// DeleteByTokenHash removes the session with the given token hash.
	// Idempotent: deleting an absent session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByUser removes all sessions for a user.
	DeleteByUser(ctx context.Context, userID int64) error

	// DeleteExpired removes all expired sessions and returns the count.
	// An optional sweep; validation treats expired rows as absent either way.
	DeleteExpired(ctx context.Context) (int64, error)
}
