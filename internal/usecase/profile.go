package usecase

import (
	"context"
	"fmt"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
)

// ProfileService exposes read and update access to the user profile.
type ProfileService struct {
	users port.UserRepository
}

// NewProfileService constructs a profile service.
func NewProfileService(users port.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// Get returns the sanitized profile for the given user.
func (s *ProfileService) Get(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return user.Sanitized(), nil
}

// Update applies the provided profile changes and returns the updated
// sanitized record.
func (s *ProfileService) Update(ctx context.Context, userID string, update port.ProfileUpdate) (domain.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}
