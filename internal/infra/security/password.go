package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when no cost is configured.
const DefaultBcryptCost = 10

// HashPassword generates a salted bcrypt hash for the provided password.
// Two calls with the same password produce different hashes; both verify.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword compares the provided password against a stored bcrypt
// hash. A malformed hash yields false rather than an error; bcrypt's
// comparison is constant time over the digest.
func VerifyPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
