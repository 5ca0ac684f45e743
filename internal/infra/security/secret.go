package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/KatanaSword/chit-chat/internal/infra/config"
)

const (
	tokenByteLength = 20
	otpDigits       = 6

	defaultTokenTTL = 20 * time.Minute
	defaultOTPTTL   = 10 * time.Minute
)

var otpUpperBound = big.NewInt(1_000_000)

// EphemeralSecret is a freshly generated single-use secret. Plaintext is
// returned to the caller exactly once for out-of-band delivery; only Hash
// and ExpiresAt are ever persisted.
type EphemeralSecret struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// SecretGenerator produces single-use verification secrets with expiry
// instants. Generation draws from crypto/rand and persists nothing.
type SecretGenerator struct {
	tokenTTL time.Duration
	otpTTL   time.Duration
	now      func() time.Time
}

// NewSecretGenerator constructs a generator from the configured lifetimes.
func NewSecretGenerator(cfg config.SecretSettings) *SecretGenerator {
	tokenTTL := cfg.VerificationTokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	otpTTL := cfg.OTPTTL
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}

	return &SecretGenerator{tokenTTL: tokenTTL, otpTTL: otpTTL, now: time.Now}
}

// WithClock injects a custom clock, primarily for testing.
func (g *SecretGenerator) WithClock(now func() time.Time) *SecretGenerator {
	if now != nil {
		g.now = now
	}
	return g
}

// GenerateToken returns an opaque verification token: 20 crypto-random
// bytes rendered as a fixed-length hex string, its SHA-256 digest, and the
// expiry instant.
func (g *SecretGenerator) GenerateToken() (EphemeralSecret, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return EphemeralSecret{}, fmt.Errorf("generate token: %w", err)
	}

	plaintext := hex.EncodeToString(buf)
	return EphemeralSecret{
		Plaintext: plaintext,
		Hash:      HashSecret(plaintext),
		ExpiresAt: g.now().UTC().Add(g.tokenTTL),
	}, nil
}

// GenerateOTP returns a uniformly random six-digit decimal code. The range
// covers all six-digit values; leading zeros are preserved because the code
// is a string, never a number.
func (g *SecretGenerator) GenerateOTP() (EphemeralSecret, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return EphemeralSecret{}, fmt.Errorf("generate otp: %w", err)
	}

	plaintext := fmt.Sprintf("%0*d", otpDigits, n)
	return EphemeralSecret{
		Plaintext: plaintext,
		Hash:      HashSecret(plaintext),
		ExpiresAt: g.now().UTC().Add(g.otpTTL),
	}, nil
}

// HashSecret calculates the SHA-256 hex digest of the provided value. A
// plain digest suffices here: the plaintext is high-entropy and single-use,
// so no salt is needed. Callers re-hash a presented secret and compare to
// the stored digest.
func HashSecret(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
