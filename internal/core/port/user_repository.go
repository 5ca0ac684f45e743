package port

import (
	"context"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
)

// ProfileUpdate carries the mutable profile fields. Nil members are left
// untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	About     *string
	Avatar    *domain.Avatar
}

// UserRepository persists identity records. Uniqueness of username, email,
// and phone number is enforced at this boundary; violations surface as
// repository.DuplicateKeyError.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier resolves a user by username or email. The identifier
	// is matched in its normalized (lowercased) form.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// GetByResetHash resolves the user holding the given password reset
	// digest. Expiry is checked by the caller.
	GetByResetHash(ctx context.Context, digest string) (*domain.User, error)

	// UpdatePassword replaces the stored password hash. The hash is written
	// only through this method so it never changes on unrelated updates.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// SetRefreshTokenHash rotates the stored refresh token reference.
	// An empty hash clears it.
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
	// SetSecret overwrites the (hash, expiry) pair for the given purpose,
	// invalidating any previously issued secret for that flow.
	SetSecret(ctx context.Context, id string, purpose domain.VerificationPurpose, ref domain.SecretRef) error
	// ClearSecret removes the outstanding pair for the given purpose.
	ClearSecret(ctx context.Context, id string, purpose domain.VerificationPurpose) error
	// MarkVerified sets the verified flag for the purpose and clears its
	// secret pair in one write.
	MarkVerified(ctx context.Context, id string, purpose domain.VerificationPurpose) error

	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
}
