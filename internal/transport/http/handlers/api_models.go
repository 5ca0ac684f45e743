package handlers

import (
	"time"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
)

// UserSummary describes the view of a user returned by the API.
type UserSummary struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	PhoneNumber     string        `json:"phoneNumber"`
	FirstName       string        `json:"firstName,omitempty"`
	LastName        string        `json:"lastName,omitempty"`
	About           string        `json:"about,omitempty"`
	Avatar          domain.Avatar `json:"avatar"`
	Role            domain.Role   `json:"role"`
	IsEmailVerified bool          `json:"isEmailVerified"`
	IsPhoneVerified bool          `json:"isPhoneNumberVerified"`
	CreatedAt       time.Time     `json:"createdAt"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		PhoneNumber:     user.PhoneNumber,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		About:           user.About,
		Avatar:          user.Avatar,
		Role:            user.Role,
		IsEmailVerified: user.IsEmailVerified,
		IsPhoneVerified: user.IsPhoneVerified,
		CreatedAt:       user.CreatedAt,
	}
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// RegistrationResponse contains registration results and next steps.
type RegistrationResponse struct {
	User    UserSummary `json:"user"`
	Message string      `json:"message"`
}

// LoginRequest defines the payload for the login endpoint. Identifier is a
// username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// TokenRefreshRequest represents the payload to refresh an access token.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenRefreshResponse contains tokens issued by the refresh endpoint.
type TokenRefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// VerificationCompleteRequest holds a presented verification secret.
type VerificationCompleteRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// ResetPasswordRequest redeems a reset token with a new password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePasswordRequest rotates the password of the authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// UpdateProfileRequest carries partial profile changes. Absent fields are
// left untouched.
type UpdateProfileRequest struct {
	FirstName *string        `json:"firstName"`
	LastName  *string        `json:"lastName"`
	About     *string        `json:"about"`
	Avatar    *domain.Avatar `json:"avatar"`
}

// CreateChatRequest opens a conversation with the listed participants.
type CreateChatRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants" binding:"required"`
	IsGroupChat  bool     `json:"isGroupChat"`
}

// SendMessageRequest posts a message into a chat.
type SendMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []domain.Attachment `json:"attachments"`
}
