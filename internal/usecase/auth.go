package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
	"github.com/KatanaSword/chit-chat/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the identifier or password is wrong.
	// Unknown identifier and bad password collapse into this one outcome so
	// callers cannot tell which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshTokenRevoked indicates the presented refresh token no longer
	// matches the stored reference.
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates authentication and session refresh flows.
type AuthService struct {
	users  port.UserRepository
	signer *security.TokenSigner
	locks  *IdentityLocks
}

// NewAuthService constructs an AuthService instance. The locks must be the
// same instance handed to the verification and password reset services; a
// nil value falls back to a private set, which only suits tests that never
// mix flows.
func NewAuthService(users port.UserRepository, signer *security.TokenSigner, locks *IdentityLocks) *AuthService {
	if locks == nil {
		locks = NewIdentityLocks()
	}
	return &AuthService{
		users:  users,
		signer: signer,
		locks:  locks,
	}
}

// Authenticate validates credentials and issues a token pair. The hash of
// the refresh token is stored as the session reference for later rotation.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (TokenPair, domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return TokenPair{}, domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, domain.User{}, ErrInvalidCredentials
		}
		return TokenPair{}, domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return TokenPair{}, domain.User{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, *user)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}

	return pair, user.Sanitized(), nil
}

// RefreshSession validates a refresh token against the stored reference,
// rotates the pair, and persists the new reference. The sequence is
// serialized per identity: of two concurrent calls with the same token,
// exactly one wins and the other observes ErrRefreshTokenRevoked.
func (s *AuthService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.signer.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	unlock := s.locks.Lock(claims.UserID)
	defer unlock()

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrRefreshTokenRevoked
		}
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenHash != security.HashSecret(refreshToken) {
		return TokenPair{}, ErrRefreshTokenRevoked
	}

	return s.issuePair(ctx, *user)
}

// Logout clears the stored refresh token reference so no outstanding
// refresh token can be exchanged.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ParseAccessToken validates an access token for request authentication.
func (s *AuthService) ParseAccessToken(token string) (*security.AccessTokenClaims, error) {
	return s.signer.ParseAccessToken(token)
}

// AccessTokenTTL reports the configured access token lifetime.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.signer.AccessTokenTTL()
}

func (s *AuthService) issuePair(ctx context.Context, user domain.User) (TokenPair, error) {
	accessToken, err := s.signer.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.signer.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.users.SetRefreshTokenHash(ctx, user.ID, security.HashSecret(refreshToken)); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
