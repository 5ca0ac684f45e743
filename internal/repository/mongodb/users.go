package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/repository"
)

// secretField maps a verification purpose to its document sub-field.
func secretField(purpose domain.VerificationPurpose) (string, error) {
	switch purpose {
	case domain.VerifyEmail:
		return "emailVerification", nil
	case domain.VerifyPhone:
		return "phoneNumberVerification", nil
	case domain.ResetPassword:
		return "forgotPassword", nil
	}
	return "", fmt.Errorf("unknown verification purpose %q", purpose)
}

// verifiedFlag maps a verification purpose to its boolean flag field.
func verifiedFlag(purpose domain.VerificationPurpose) (string, bool) {
	switch purpose {
	case domain.VerifyEmail:
		return "isEmailVerified", true
	case domain.VerifyPhone:
		return "isPhoneNumberVerified", true
	}
	return "", false
}

// UserRepository implements port.UserRepository on the users collection.
type UserRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewUserRepository wires a MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
		now:        time.Now,
	}
}

// Create inserts a new identity record. Timestamps are stamped by the
// usecase so the entity returned to callers matches the stored document;
// the repository only backfills when they are missing.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByIdentifier resolves a user by username or email, matched in
// normalized form.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	normalized := domain.NormalizeIdentifier(identifier)
	filter := bson.M{"$or": bson.A{
		bson.M{"username": normalized},
		bson.M{"email": normalized},
	}}
	return r.findOne(ctx, filter)
}

// GetByResetHash resolves the user holding the given password reset digest.
func (r *UserRepository) GetByResetHash(ctx context.Context, digest string) (*domain.User, error) {
	if digest == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"forgotPassword.hash": digest})
}

// UpdatePassword replaces the stored password hash. Nothing else touches
// the hash, so it only ever changes through an explicit password change.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if passwordHash == "" {
		return fmt.Errorf("password hash must not be empty")
	}
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"passwordHash": passwordHash,
		"updatedAt":    r.now().UTC(),
	}})
}

// SetRefreshTokenHash rotates the stored refresh token reference; an empty
// hash clears it.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, id, hash string) error {
	set := bson.M{"updatedAt": r.now().UTC()}
	update := bson.M{"$set": set}
	if hash == "" {
		update["$unset"] = bson.M{"refreshTokenHash": ""}
	} else {
		set["refreshTokenHash"] = hash
	}
	return r.updateOne(ctx, id, update)
}

// SetSecret overwrites the (hash, expiry) pair for a purpose, invalidating
// any previously issued secret for that flow.
func (r *UserRepository) SetSecret(ctx context.Context, id string, purpose domain.VerificationPurpose, ref domain.SecretRef) error {
	field, err := secretField(purpose)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		field:       ref,
		"updatedAt": r.now().UTC(),
	}})
}

// ClearSecret removes the outstanding pair for a purpose.
func (r *UserRepository) ClearSecret(ctx context.Context, id string, purpose domain.VerificationPurpose) error {
	field, err := secretField(purpose)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, id, bson.M{
		"$unset": bson.M{field: ""},
		"$set":   bson.M{"updatedAt": r.now().UTC()},
	})
}

// MarkVerified sets the verified flag for the purpose and clears its secret
// pair in one write.
func (r *UserRepository) MarkVerified(ctx context.Context, id string, purpose domain.VerificationPurpose) error {
	field, err := secretField(purpose)
	if err != nil {
		return err
	}
	flag, ok := verifiedFlag(purpose)
	if !ok {
		return fmt.Errorf("purpose %q has no verified flag", purpose)
	}
	return r.updateOne(ctx, id, bson.M{
		"$set":   bson.M{flag: true, "updatedAt": r.now().UTC()},
		"$unset": bson.M{field: ""},
	})
}

// UpdateProfile applies the provided profile field changes.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update port.ProfileUpdate) error {
	set := bson.M{"updatedAt": r.now().UTC()}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.About != nil {
		set["about"] = *update.About
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
