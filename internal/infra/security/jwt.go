package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/infra/config"
)

var (
	// ErrTokenExpired indicates the token's expiry instant has passed.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrTokenInvalidSignature indicates the signature does not match.
	ErrTokenInvalidSignature = errors.New("jwt: invalid signature")
	// ErrTokenMalformed indicates the claims could not be decoded.
	ErrTokenMalformed = errors.New("jwt: malformed token")
)

// AccessTokenClaims embeds the identity attributes an API request needs.
type AccessTokenClaims struct {
	UserID      string `json:"uid"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims carries only the identity id.
type RefreshTokenClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenSigner issues and validates signed, time-bounded session tokens.
// Access and refresh tokens are signed with distinct symmetric secrets.
// It is a pure function of (claims, secret, clock) and keeps no state.
type TokenSigner struct {
	cfg config.JWTSettings
	now func() time.Time
}

// NewTokenSigner validates the configuration and constructs a signer.
// Missing secrets are a fatal configuration error; a refresh lifetime not
// exceeding the access lifetime is rejected as well.
func NewTokenSigner(cfg config.JWTSettings) (*TokenSigner, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, fmt.Errorf("%w: access", config.ErrMissingSigningSecret)
	}
	if strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, fmt.Errorf("%w: refresh", config.ErrMissingSigningSecret)
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 240 * time.Hour
	}
	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, fmt.Errorf("jwt: refresh token ttl %s must exceed access token ttl %s",
			cfg.RefreshTokenTTL, cfg.AccessTokenTTL)
	}

	return &TokenSigner{cfg: cfg, now: time.Now}, nil
}

// WithClock injects a custom clock, primarily for testing.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *TokenSigner) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *TokenSigner) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshTokenTTL
}

// IssueAccessToken signs a short-lived token embedding the user's id,
// username, email, phone number, and role.
func (s *TokenSigner) IssueAccessToken(user domain.User) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("jwt: user id is required")
	}

	now := s.now().UTC()
	claims := AccessTokenClaims{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken signs a long-lived token embedding only the user's id.
func (s *TokenSigner) IssueRefreshToken(user domain.User) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("jwt: user id is required")
	}

	now := s.now().UTC()
	claims := RefreshTokenClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken validates signature and expiry of an access token and
// returns its claims. Revocation state is not checked here.
func (s *TokenSigner) ParseAccessToken(token string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := s.parse(token, claims, s.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ParseRefreshToken validates signature and expiry of a refresh token and
// returns its claims. Callers compare against the identity record's stored
// refresh token reference for revocation.
func (s *TokenSigner) ParseRefreshToken(token string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := s.parse(token, claims, s.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (s *TokenSigner) parse(token string, claims jwt.Claims, secret string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenInvalidSignature
		default:
			return ErrTokenMalformed
		}
	}

	if parsed == nil || !parsed.Valid {
		return ErrTokenMalformed
	}

	return nil
}
