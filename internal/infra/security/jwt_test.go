package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/infra/config"
)

func testJWTSettings() config.JWTSettings {
	return config.JWTSettings{
		Issuer:          "chit-chat-test",
		AccessSecret:    "access-secret-for-tests",
		RefreshSecret:   "refresh-secret-for-tests",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 240 * time.Hour,
	}
}

func testUser() domain.User {
	return domain.User{
		ID:          "user-1",
		Username:    "alice",
		Email:       "alice@x.com",
		PhoneNumber: "5551234567",
		Role:        domain.RoleUser,
	}
}

func TestNewTokenSignerValidation(t *testing.T) {
	cfg := testJWTSettings()
	cfg.AccessSecret = ""
	if _, err := NewTokenSigner(cfg); !errors.Is(err, config.ErrMissingSigningSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	cfg = testJWTSettings()
	cfg.RefreshTokenTTL = cfg.AccessTokenTTL
	if _, err := NewTokenSigner(cfg); err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	signer, err := NewTokenSigner(testJWTSettings())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	claims, err := signer.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != "user-1" || claims.Username != "alice" ||
		claims.Email != "alice@x.com" || claims.PhoneNumber != "5551234567" ||
		claims.Role != "user" {
		t.Fatalf("claims did not round-trip: %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	signer, err := NewTokenSigner(testJWTSettings())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.IssueRefreshToken(testUser())
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	claims, err := signer.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected uid claim, got %+v", claims)
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	signer, err := NewTokenSigner(testJWTSettings())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	issuedAt := time.Now().UTC()
	signer.WithClock(func() time.Time { return issuedAt })

	token, err := signer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	signer.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	if _, err := signer.ParseAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	signer.WithClock(func() time.Time { return issuedAt.Add(30 * time.Minute) })
	if _, err := signer.ParseAccessToken(token); err != nil {
		t.Fatalf("expected token to still parse before expiry, got %v", err)
	}
}

func TestParseAccessTokenTampered(t *testing.T) {
	signer, err := NewTokenSigner(testJWTSettings())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	// Flip the first byte of the signature segment.
	dot := strings.LastIndexByte(token, '.')
	tampered := []byte(token)
	if tampered[dot+1] == 'A' {
		tampered[dot+1] = 'Q'
	} else {
		tampered[dot+1] = 'A'
	}

	if _, err := signer.ParseAccessToken(string(tampered)); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestParseAccessTokenMalformed(t *testing.T) {
	signer, err := NewTokenSigner(testJWTSettings())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := signer.ParseAccessToken(token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", token, err)
		}
	}
}

func TestAccessTokenNotValidAsRefreshToken(t *testing.T) {
	signer, err := NewTokenSigner(testJWTSettings())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	// Signed with the access secret, so the refresh secret must reject it.
	if _, err := signer.ParseRefreshToken(token); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}
