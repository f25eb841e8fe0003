// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/samber/oops"
)

// CSRFTokenBytes is the entropy of CSRF tokens and browser session IDs.
const CSRFTokenBytes = 32

// CSRFToken is the single anti-forgery token attached to a browser
// session. It protects the browser context, not the account: it is keyed
// by its own cookie, independent of the login session token, and is
// never rotated mid-session.
type CSRFToken struct {
	BrowserSessionID string
	Token            string
	CreatedAt        time.Time
}

// CSRFRepository manages CSRF token persistence per browser session.
type CSRFRepository interface {
	// Get retrieves the token for a browser session.
	// Returns ErrNotFound if none was ever issued.
	Get(ctx context.Context, browserSessionID string) (*CSRFToken, error)

	// Save stores a token, keeping any existing one for the same
	// browser session (first writer wins).
	Save(ctx context.Context, token *CSRFToken) (*CSRFToken, error)
}

// CSRFGuard issues and verifies per-browser-session anti-forgery tokens.
// The guard does not decide which operations need protection; callers
// opt in for state-changing requests only, never plain reads.
type CSRFGuard struct {
	tokens CSRFRepository
}

// NewCSRFGuard creates a CSRFGuard.
func NewCSRFGuard(tokens CSRFRepository) (*CSRFGuard, error) {
	if tokens == nil {
		return nil, oops.Errorf("csrf token repository is required")
	}
	return &CSRFGuard{tokens: tokens}, nil
}

// GenerateBrowserSessionID creates an unguessable browser session
// identifier. It must come from a CSPRNG: the ID alone authorizes
// reading that browser session's CSRF token.
func GenerateBrowserSessionID() (string, error) {
	return randomHex(CSRFTokenBytes)
}

// Issue returns the browser session's CSRF token, creating one lazily on
// first use. One token per browser session, not per request.
func (g *CSRFGuard) Issue(ctx context.Context, browserSessionID string) (string, error) {
	if browserSessionID == "" {
		return "", oops.Code(CodeCSRFFailure).Errorf("browser session ID cannot be empty")
	}

	existing, err := g.tokens.Get(ctx, browserSessionID)
	if err == nil {
		return existing.Token, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", oops.Code("CSRF_ISSUE_FAILED").
			With("operation", "get csrf token").
			Wrap(err)
	}

	value, err := randomHex(CSRFTokenBytes)
	if err != nil {
		return "", oops.Code("CSRF_ISSUE_FAILED").
			With("operation", "generate csrf token").
			Wrap(err)
	}

	// Save keeps the first stored token on a concurrent double-issue,
	// so both requests converge on one value.
	saved, err := g.tokens.Save(ctx, &CSRFToken{
		BrowserSessionID: browserSessionID,
		Token:            value,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		return "", oops.Code("CSRF_ISSUE_FAILED").
			With("operation", "save csrf token").
			Wrap(err)
	}
	return saved.Token, nil
}

// Verify reports whether the presented token matches the browser
// session's stored token, comparing in constant time. A browser session
// that was never issued a token verifies false, not an error.
func (g *CSRFGuard) Verify(ctx context.Context, browserSessionID, presented string) (bool, error) {
	if browserSessionID == "" || presented == "" {
		return false, nil
	}

	stored, err := g.tokens.Get(ctx, browserSessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, oops.Code("CSRF_VERIFY_FAILED").
			With("operation", "get csrf token").
			Wrap(err)
	}

	return subtle.ConstantTimeCompare([]byte(stored.Token), []byte(presented)) == 1, nil
}

// randomHex returns n cryptographically random bytes hex-encoded.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("CSRF_RANDOM_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}
