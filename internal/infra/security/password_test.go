package security

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "secret123" {
		t.Fatalf("expected opaque hash, got %q", hash)
	}

	if !VerifyPassword("secret123", hash) {
		t.Fatal("expected password to verify against its own hash")
	}
	if VerifyPassword("secret124", hash) {
		t.Fatal("expected different password to fail verification")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("secret123", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	second, err := HashPassword("secret123", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if first == second {
		t.Fatal("expected two hashes of the same password to differ")
	}
	if !VerifyPassword("secret123", first) || !VerifyPassword("secret123", second) {
		t.Fatal("expected both salted hashes to verify")
	}
}

func TestHashPasswordZeroCostFallsBack(t *testing.T) {
	hash, err := HashPassword("secret123", 0)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("expected default cost 10 hash, got %q", hash)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if VerifyPassword("secret123", "not-a-bcrypt-hash") {
		t.Fatal("expected malformed hash to fail verification, not panic")
	}
	if VerifyPassword("", "") {
		t.Fatal("expected empty inputs to fail verification")
	}
}
