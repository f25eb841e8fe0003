// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// passwordSymbols is the punctuation set of which at least one character
// must appear in a password.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// usernameRegex matches usernames of 3-20 characters containing only
// letters, numbers, underscores, and hyphens.
var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// Role is the ordered permission level of a user account.
type Role string

// Roles in ascending order of privilege.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "owner"
)

// roleLevels orders roles for privilege comparison.
var roleLevels = map[Role]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
	RoleOwner:     4,
}

// Valid returns true if the role is one of the known values.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast returns true if the role grants at least the privilege of other.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(other Role) bool {
	level, ok := roleLevels[r]
	if !ok {
		return false
	}
	required, ok := roleLevels[other]
	if !ok {
		return false
	}
	return level >= required
}

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", oops.Code(CodeInvalidFormat).
			With("role", s).
			Errorf("unknown role %q", s)
	}
	return r, nil
}

// Status is the lifecycle state of a user account.
type Status string

// Account statuses.
const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

// User represents a registered site account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// PublicUser is the subset of User safe to return to clients.
// The password hash never leaves the auth core.
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the client-visible view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// NewUser creates a User with validated username and email and the given
// password hash. New accounts start as active regular users; role and
// status changes are privileged operations outside this package.
func NewUser(username, email, passwordHash string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidFormat).Errorf("password hash cannot be empty")
	}
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateUsername validates a username against format rules.
// Usernames are 3-20 characters of letters, numbers, underscores,
// and hyphens.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code(CodeInvalidFormat).Errorf("username cannot be empty")
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code(CodeInvalidFormat).
			With("min", MinUsernameLength).
			With("max", MaxUsernameLength).
			Errorf("username must be %d-%d characters of letters, numbers, underscores, or hyphens",
				MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ValidateEmail validates email address syntax.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeInvalidFormat).Errorf("email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	// Reject addresses with display names ("Name <a@b>") so the stored
	// value is always a bare address.
	if err != nil || addr.Address != email {
		return oops.Code(CodeInvalidFormat).
			With("email", email).
			Errorf("email address is not valid")
	}
	return nil
}

// ValidatePassword validates password strength. Each missing character
// class yields its own message so callers can report the exact rule
// that failed; all share the weak-password error code.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code(CodeWeakPassword).
			With("rule", "length").
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, c):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return oops.Code(CodeWeakPassword).
			With("rule", "uppercase").
			Errorf("password must contain at least one uppercase letter")
	case !hasLower:
		return oops.Code(CodeWeakPassword).
			With("rule", "lowercase").
			Errorf("password must contain at least one lowercase letter")
	case !hasDigit:
		return oops.Code(CodeWeakPassword).
			With("rule", "digit").
			Errorf("password must contain at least one digit")
	case !hasSymbol:
		return oops.Code(CodeWeakPassword).
			With("rule", "symbol").
			Errorf("password must contain at least one symbol (%s)", passwordSymbols)
	}
	return nil
}

// ValidatePasswordConfirmation checks that the confirmation matches the
// primary password exactly. Registration only.
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return oops.Code(CodePasswordMismatch).Errorf("passwords do not match")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and fills in its assigned ID.
	// Returns an error wrapping ErrConflict if the username or email
	// is already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateLastLogin sets the last-login timestamp for a user.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}
