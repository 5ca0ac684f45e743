package security

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/KatanaSword/chit-chat/internal/infra/config"
)

func testSecretSettings() config.SecretSettings {
	return config.SecretSettings{
		VerificationTokenTTL: 20 * time.Minute,
		OTPTTL:               10 * time.Minute,
	}
}

func TestGenerateToken(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gen := NewSecretGenerator(testSecretSettings()).WithClock(func() time.Time { return now })

	secret, err := gen.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if len(secret.Plaintext) != 40 {
		t.Fatalf("expected 40-char hex token, got %d chars", len(secret.Plaintext))
	}
	if _, err := hex.DecodeString(secret.Plaintext); err != nil {
		t.Fatalf("expected hex plaintext, got %q", secret.Plaintext)
	}

	sum := sha256.Sum256([]byte(secret.Plaintext))
	if secret.Hash != hex.EncodeToString(sum[:]) {
		t.Fatal("hash does not match sha256 of plaintext")
	}
	if !secret.ExpiresAt.Equal(now.Add(20 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", secret.ExpiresAt)
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	gen := NewSecretGenerator(testSecretSettings())

	first, err := gen.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	second, err := gen.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if first.Plaintext == second.Plaintext {
		t.Fatal("expected distinct tokens across calls")
	}
}

func TestGenerateOTPShape(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gen := NewSecretGenerator(testSecretSettings()).WithClock(func() time.Time { return now })

	for i := 0; i < 500; i++ {
		secret, err := gen.GenerateOTP()
		if err != nil {
			t.Fatalf("generate otp: %v", err)
		}
		if len(secret.Plaintext) != 6 {
			t.Fatalf("expected 6-digit otp, got %q", secret.Plaintext)
		}
		for _, r := range secret.Plaintext {
			if r < '0' || r > '9' {
				t.Fatalf("expected decimal otp, got %q", secret.Plaintext)
			}
		}
		if secret.Hash != HashSecret(secret.Plaintext) {
			t.Fatal("otp hash does not match digest of plaintext")
		}
	}
}

func TestOTPExpiresBeforeToken(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gen := NewSecretGenerator(testSecretSettings()).WithClock(func() time.Time { return now })

	token, err := gen.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	otp, err := gen.GenerateOTP()
	if err != nil {
		t.Fatalf("generate otp: %v", err)
	}

	if !otp.ExpiresAt.Before(token.ExpiresAt) {
		t.Fatalf("expected otp lifetime %v to be shorter than token lifetime %v",
			otp.ExpiresAt, token.ExpiresAt)
	}
}

func TestHashSecretDeterministic(t *testing.T) {
	if HashSecret("123456") != HashSecret("123456") {
		t.Fatal("expected deterministic digest")
	}
	if HashSecret("123456") == HashSecret("123457") {
		t.Fatal("expected different digests for different inputs")
	}
}
