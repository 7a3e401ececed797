// Password hashing for registered users.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and that slowness is what makes offline
// brute force expensive. Each hash carries its own random salt and its cost,
// so the users table needs a single column and two users with the same
// password never share a hash.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (10 rounds: 2^10 iterations)
//	 version
//
// Never store passwords in plain text or behind a fast digest (MD5, SHA-256).

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the 10 rounds existing hashes were created with.
//
// COST TUNING RULE OF THUMB:
// pick the cost at which one hash takes roughly 100 to 300ms on production
// hardware. Raising it later is safe: old hashes still verify because the
// cost is read back from the hash itself, and new hashes use the new cost.
const DefaultCost = 10

// ErrPasswordMismatch is returned by Verify for a wrong password.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords.
//
// It is a struct rather than free functions so the cost can be injected:
// tests pass bcrypt.MinCost (4) to keep each hash in the microseconds. Do not
// run production with cost 4.
type PasswordService struct {
	cost int
}

// NewPasswordService uses DefaultCost when cost is outside bcrypt's range.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns a self-contained bcrypt hash, e.g.
//
//	$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store it as is; Verify decodes the salt and cost from it.
//
// Passwords over 72 bytes are rejected. bcrypt silently ignores everything
// past byte 72, so two long passwords sharing a prefix would collide.
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

// Verify compares plaintext against a stored hash. A wrong password yields
// ErrPasswordMismatch; any other error means the hash itself is unusable.
//
// The comparison runs in constant time with respect to the password, so
// response timing does not leak how many leading bytes matched.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
