package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
)

var (
	// ErrPasswordPolicyViolation indicates the password does not satisfy the
	// configured policy.
	ErrPasswordPolicyViolation = errors.New("password does not meet policy requirements")
	// ErrInvalidPhoneNumber indicates the phone number is not a ten-digit
	// string.
	ErrInvalidPhoneNumber = errors.New("phone number must be a ten-digit string")
	// ErrMissingField indicates a required registration field was empty.
	ErrMissingField = errors.New("required field missing")
)

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	users      port.UserRepository
	validator  *security.PasswordValidator
	events     port.EventPublisher
	bcryptCost int
	now        func() time.Time
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(users port.UserRepository, validator *security.PasswordValidator, events port.EventPublisher, bcryptCost int) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &RegistrationService{
		users:      users,
		validator:  validator,
		events:     events,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	if now != nil {
		s.now = now
	}
	return s
}

// RegisterInput carries the fields supplied at registration.
type RegisterInput struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	FirstName   string
	LastName    string
}

// Register normalizes and validates the input, hashes the password, and
// persists the identity record with the default role and an empty avatar.
// Uniqueness violations surface as repository.DuplicateKeyError with the
// offending field name.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	username := domain.NormalizeIdentifier(input.Username)
	email := domain.NormalizeIdentifier(input.Email)
	phone := strings.TrimSpace(input.PhoneNumber)
	password := input.Password

	if username == "" {
		return domain.User{}, fmt.Errorf("%w: username", ErrMissingField)
	}
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email", ErrMissingField)
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("%w: password", ErrMissingField)
	}
	if !domain.ValidPhoneNumber(phone) {
		return domain.User{}, ErrInvalidPhoneNumber
	}

	if err := s.validator.Validate(password); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(password, s.bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	// Stamp here so the record handed back to the caller carries the same
	// timestamps the store persists.
	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PhoneNumber:  phone,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Avatar:       domain.Avatar{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	if s.events != nil {
		event := domain.UserRegisteredEvent{
			UserID:       user.ID,
			Username:     user.Username,
			Email:        user.Email,
			RegisteredAt: user.CreatedAt,
		}
		if err := s.events.PublishUserRegistered(ctx, event); err != nil {
			// Registration already succeeded; event delivery is best effort.
			return user.Sanitized(), nil
		}
	}

	return user.Sanitized(), nil
}
