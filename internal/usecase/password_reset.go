package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
	"github.com/KatanaSword/chit-chat/internal/repository"
)

// PasswordResetService drives the forgot-password flow and direct password
// changes for authenticated users.
type PasswordResetService struct {
	users      port.UserRepository
	secrets    *security.SecretGenerator
	validator  *security.PasswordValidator
	events     port.EventPublisher
	locks      *IdentityLocks
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewPasswordResetService constructs a password reset service. The locks
// must be shared with the auth and verification services so a reset and a
// concurrent refresh on the same identity cannot interleave.
func NewPasswordResetService(users port.UserRepository, secrets *security.SecretGenerator, validator *security.PasswordValidator, events port.EventPublisher, locks *IdentityLocks, logger *zap.Logger, bcryptCost int) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if locks == nil {
		locks = NewIdentityLocks()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{
		users:      users,
		secrets:    secrets,
		validator:  validator,
		events:     events,
		locks:      locks,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	if now != nil {
		s.now = now
	}
	return s
}

// Begin issues a reset token for the account behind the identifier and hands
// it to the notification pipeline. An unknown identifier returns
// repository.ErrNotFound; the transport layer decides whether to hide that
// from the caller.
func (s *PasswordResetService) Begin(ctx context.Context, identifier string) (security.EphemeralSecret, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return security.EphemeralSecret{}, err
	}

	secret, err := s.secrets.GenerateToken()
	if err != nil {
		return security.EphemeralSecret{}, err
	}

	ref := domain.SecretRef{Hash: secret.Hash, ExpiresAt: secret.ExpiresAt}
	if err := s.users.SetSecret(ctx, user.ID, domain.ResetPassword, ref); err != nil {
		return security.EphemeralSecret{}, fmt.Errorf("store reset secret: %w", err)
	}

	if s.events != nil {
		event := domain.SecretIssuedEvent{
			UserID:    user.ID,
			Purpose:   domain.ResetPassword,
			Contact:   user.Email,
			Plaintext: secret.Plaintext,
			ExpiresAt: secret.ExpiresAt,
		}
		if err := s.events.PublishSecretIssued(ctx, event); err != nil {
			// The event is the token's only delivery channel.
			s.logger.Warn("reset token not handed to delivery",
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}

	return secret, nil
}

// Reset redeems a reset token and installs a new password. The token is
// located by its digest, re-checked under the per-identity lock, and cleared
// on success together with the refresh token reference, so every live
// session is revoked. A token that matches but has passed its expiry yields
// ErrSecretExpired; anything else that fails to match yields
// ErrSecretInvalid.
func (s *PasswordResetService) Reset(ctx context.Context, presented, newPassword string) error {
	if presented == "" {
		return ErrSecretInvalid
	}

	digest := security.HashSecret(presented)
	user, err := s.users.GetByResetHash(ctx, digest)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSecretInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	// Re-read under the lock: a concurrent redemption may have consumed the
	// secret between lookup and lock acquisition.
	user, err = s.users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSecretInvalid
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ref := user.Secret(domain.ResetPassword)
	if ref.IsZero() || ref.Hash != digest {
		return ErrSecretInvalid
	}
	if s.now().UTC().After(ref.ExpiresAt) {
		return ErrSecretExpired
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	return s.installPassword(ctx, user.ID, newPassword)
}

// ChangePassword rotates the password for an authenticated user after
// verifying the current one. All outstanding sessions are revoked.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	if !security.VerifyPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := security.RequireDifferentFrom(currentPassword).Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}
	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	return s.installPassword(ctx, userID, newPassword)
}

func (s *PasswordResetService) installPassword(ctx context.Context, userID, newPassword string) error {
	passwordHash, err := security.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.users.ClearSecret(ctx, userID, domain.ResetPassword); err != nil {
		return fmt.Errorf("clear reset secret: %w", err)
	}
	if err := s.users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			UserID:    userID,
			ChangedAt: s.now().UTC(),
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("password changed event not published",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	return nil
}
