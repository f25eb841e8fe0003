// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id work-factor parameters. The hash format
// is self-describing, so these only govern newly created hashes;
// verification reads the parameters embedded in each hash.
type Argon2Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params returns the OWASP-recommended argon2id parameters,
// which cost tens of milliseconds per hash on commodity hardware.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeInvalidFormat).Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted, self-describing hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash. Malformed
	// hashes verify false; they never abort a login with an error.
	Verify(password, hash string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id in PHC string
// format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates an Argon2idHasher with default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(DefaultArgon2Params())
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with explicit
// parameters. Zero-valued fields fall back to the defaults.
func NewArgon2idHasherWithParams(params Argon2Params) *Argon2idHasher {
	def := DefaultArgon2Params()
	if params.Time == 0 {
		params.Time = def.Time
	}
	if params.Memory == 0 {
		params.Memory = def.Memory
	}
	if params.Threads == 0 {
		params.Threads = def.Threads
	}
	if params.SaltLen == 0 {
		params.SaltLen = def.SaltLen
	}
	if params.KeyLen == 0 {
		params.KeyLen = def.KeyLen
	}
	return &Argon2idHasher{params: params}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify reports whether the password matches the encoded hash.
// A malformed or foreign-algorithm hash verifies false rather than
// erroring, so a corrupted stored hash reads as a credential mismatch.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if threads == 0 || threads > 255 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	keyLen := len(expected)
	if keyLen == 0 || keyLen > 1<<10 {
		return false
	}

	// Recompute with the parameters embedded in the hash.
	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
