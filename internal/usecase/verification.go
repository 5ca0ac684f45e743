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
)

var (
	// ErrSecretInvalid indicates the presented secret does not match the
	// stored digest, or no secret is outstanding for the flow.
	ErrSecretInvalid = errors.New("verification secret invalid")
	// ErrSecretExpired indicates the secret matched but its expiry instant
	// has passed.
	ErrSecretExpired = errors.New("verification secret expired")
	// ErrUnsupportedPurpose indicates the purpose has no verification flow.
	ErrUnsupportedPurpose = errors.New("unsupported verification purpose")
)

// VerificationService drives email and phone verification flows.
type VerificationService struct {
	users   port.UserRepository
	secrets *security.SecretGenerator
	events  port.EventPublisher
	locks   *IdentityLocks
	logger  *zap.Logger
	now     func() time.Time
}

// NewVerificationService constructs a verification service. The locks must
// be shared with every other service mutating the same identity records.
func NewVerificationService(users port.UserRepository, secrets *security.SecretGenerator, events port.EventPublisher, locks *IdentityLocks, logger *zap.Logger) *VerificationService {
	if locks == nil {
		locks = NewIdentityLocks()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		users:   users,
		secrets: secrets,
		events:  events,
		locks:   locks,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	if now != nil {
		s.now = now
	}
	return s
}

// Begin generates a fresh secret for the purpose, overwrites any previous
// pair, publishes it for out-of-band delivery, and returns the plaintext.
// Email verification uses an opaque token; phone verification uses an OTP.
func (s *VerificationService) Begin(ctx context.Context, userID string, purpose domain.VerificationPurpose) (security.EphemeralSecret, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return security.EphemeralSecret{}, fmt.Errorf("lookup user: %w", err)
	}

	var (
		secret  security.EphemeralSecret
		contact string
	)
	switch purpose {
	case domain.VerifyEmail:
		secret, err = s.secrets.GenerateToken()
		contact = user.Email
	case domain.VerifyPhone:
		secret, err = s.secrets.GenerateOTP()
		contact = user.PhoneNumber
	default:
		return security.EphemeralSecret{}, ErrUnsupportedPurpose
	}
	if err != nil {
		return security.EphemeralSecret{}, err
	}

	ref := domain.SecretRef{Hash: secret.Hash, ExpiresAt: secret.ExpiresAt}
	if err := s.users.SetSecret(ctx, userID, purpose, ref); err != nil {
		return security.EphemeralSecret{}, fmt.Errorf("store secret: %w", err)
	}

	if s.events != nil {
		event := domain.SecretIssuedEvent{
			UserID:    userID,
			Purpose:   purpose,
			Contact:   contact,
			Plaintext: secret.Plaintext,
			ExpiresAt: secret.ExpiresAt,
		}
		if err := s.events.PublishSecretIssued(ctx, event); err != nil {
			// The event is the secret's only delivery channel; the caller
			// can re-request, but the failure must not be silent.
			s.logger.Warn("verification secret not handed to delivery",
				zap.String("user_id", userID),
				zap.String("purpose", string(purpose)),
				zap.Error(err))
		}
	}

	return secret, nil
}

// Complete redeems a presented secret: the digest must match the stored
// one and the expiry must not have passed, both checks required. Success
// sets the verified flag and clears the pair, so the secret is single use.
// The sequence is serialized per identity.
func (s *VerificationService) Complete(ctx context.Context, userID string, purpose domain.VerificationPurpose, presented string) error {
	if purpose != domain.VerifyEmail && purpose != domain.VerifyPhone {
		return ErrUnsupportedPurpose
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	ref := user.Secret(purpose)
	digest := security.HashSecret(presented)
	if ref.IsZero() || presented == "" || ref.Hash != digest {
		return ErrSecretInvalid
	}
	if s.now().UTC().After(ref.ExpiresAt) {
		return ErrSecretExpired
	}

	if err := s.users.MarkVerified(ctx, userID, purpose); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	return nil
}
