// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slportal/slportal/internal/auth"
)

// memUserRepo is an in-memory UserRepository for service tests.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User

	createErr error
	getErr    error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return auth.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *memUserRepo) setStatus(id int64, status auth.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Status = status
	}
}

// memSessionRepo is an in-memory SessionRepository.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session // keyed by token hash

	createErr error
	touchErr  error
	deletes   int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*auth.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *session
	r.sessions[session.TokenHash] = &cp
	return nil
}

func (r *memSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Touch(_ context.Context, id ulid.ULID, expiresAt, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touchErr != nil {
		return r.touchErr
	}
	for _, s := range r.sessions {
		if s.ID == id {
			s.ExpiresAt = expiresAt
			s.LastSeenAt = lastSeen
			return nil
		}
	}
	return auth.ErrNotFound
}

func (r *memSessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	r.deletes++
	return nil
}

func (r *memSessionRepo) DeleteByUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, hash)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for hash, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, hash)
			n++
		}
	}
	return n, nil
}

// memAttemptRepo is an in-memory LoginAttemptRepository mirroring the
// atomic upsert semantics of the persistent one.
type memAttemptRepo struct {
	mu     sync.Mutex
	states map[string]*auth.LoginAttemptState

	getErr error
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{states: make(map[string]*auth.LoginAttemptState)}
}

func (r *memAttemptRepo) Get(_ context.Context, username string) (*auth.LoginAttemptState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.states[strings.ToLower(username)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memAttemptRepo) RecordFailure(_ context.Context, username string, threshold int, lockout time.Duration) (*auth.LoginAttemptState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(username)
	s, ok := r.states[key]
	if !ok {
		s = &auth.LoginAttemptState{Username: key}
		r.states[key] = s
	}
	s.FailedAttempts++
	now := time.Now()
	if !s.Locked(now) && s.FailedAttempts >= threshold {
		until := now.Add(lockout)
		s.LockedUntil = &until
	}
	cp := *s
	return &cp, nil
}

func (r *memAttemptRepo) RecordSuccess(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, strings.ToLower(username))
	return nil
}

// memCSRFRepo is an in-memory CSRFRepository with first-writer-wins
// save semantics.
type memCSRFRepo struct {
	mu     sync.Mutex
	tokens map[string]*auth.CSRFToken

	getErr error
}

func newMemCSRFRepo() *memCSRFRepo {
	return &memCSRFRepo{tokens: make(map[string]*auth.CSRFToken)}
}

func (r *memCSRFRepo) Get(_ context.Context, browserSessionID string) (*auth.CSRFToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.tokens[browserSessionID]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memCSRFRepo) Save(_ context.Context, token *auth.CSRFToken) (*auth.CSRFToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.tokens[token.BrowserSessionID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *token
	r.tokens[token.BrowserSessionID] = &cp
	out := cp
	return &out, nil
}
