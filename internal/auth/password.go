// Package auth — password hashing and verification.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and that slowness is the security property:
// it makes offline brute-forcing of a stolen hash table expensive. It also
// generates a random salt per hash and embeds it in the output, so two users
// with the same password get different hashes and no separate salt column
// is needed.
//
// NEVER store passwords in plaintext or with fast hashes (MD5, SHA-256) —
// those fall to GPU rigs in minutes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// Tune so one hash takes ~200-300ms on production hardware: too low is easy
// to crack, too high turns login into the server's hottest code path.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests —
// cost 4 makes a hash take microseconds instead of ~250ms.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Use bcrypt's minimum, 4, in tests. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is self-contained ($2a$12$<salt><hash>); store it directly —
// Verify knows how to decode the cost and salt back out of it.
//
// Returns an error for plaintext over 72 bytes: bcrypt silently truncates
// beyond that, and we'd rather reject than let callers believe the whole
// password was hashed.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match, a non-nil error otherwise.
//
// bcrypt.CompareHashAndPassword compares in constant time, so response
// timing doesn't reveal how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
