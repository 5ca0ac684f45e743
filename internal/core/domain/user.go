package domain

import (
	"strings"
	"time"
)

// Role enumerates the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// VerificationPurpose identifies which single-use secret flow a value belongs to.
type VerificationPurpose string

const (
	VerifyEmail   VerificationPurpose = "email"
	VerifyPhone   VerificationPurpose = "phone"
	ResetPassword VerificationPurpose = "password_reset"
)

// Valid reports whether the purpose is one of the supported flows.
func (p VerificationPurpose) Valid() bool {
	switch p {
	case VerifyEmail, VerifyPhone, ResetPassword:
		return true
	}
	return false
}

// Avatar holds the profile image location and its storage identifier.
// Both fields default to empty strings rather than being absent.
type Avatar struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

// SecretRef is the persisted half of an ephemeral secret: the digest of the
// plaintext and the instant it stops being redeemable. The zero value means
// no secret is outstanding for the flow.
type SecretRef struct {
	Hash      string    `bson:"hash,omitempty" json:"-"`
	ExpiresAt time.Time `bson:"expiresAt,omitempty" json:"-"`
}

// IsZero reports whether no secret is outstanding.
func (s SecretRef) IsZero() bool {
	return s.Hash == ""
}

// Redeemable reports whether a presented digest matches the stored one and
// the secret has not expired. Both checks are required; neither alone is
// sufficient.
func (s SecretRef) Redeemable(digest string, at time.Time) bool {
	if s.IsZero() || digest == "" {
		return false
	}
	if s.Hash != digest {
		return false
	}
	return !at.After(s.ExpiresAt)
}

// User is the durable identity record: credentials, role, verification state,
// and the latest issued ephemeral secret per flow.
type User struct {
	ID          string `bson:"_id" json:"id"`
	Username    string `bson:"username" json:"username"`
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phoneNumber" json:"phoneNumber"`

	FirstName string `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	About     string `bson:"about,omitempty" json:"about,omitempty"`
	Avatar    Avatar `bson:"avatar" json:"avatar"`

	PasswordHash string `bson:"passwordHash" json:"-"`
	Role         Role   `bson:"role" json:"role"`

	IsEmailVerified bool `bson:"isEmailVerified" json:"isEmailVerified"`
	IsPhoneVerified bool `bson:"isPhoneNumberVerified" json:"isPhoneNumberVerified"`

	EmailVerification SecretRef `bson:"emailVerification,omitempty" json:"-"`
	PhoneVerification SecretRef `bson:"phoneNumberVerification,omitempty" json:"-"`
	PasswordReset     SecretRef `bson:"forgotPassword,omitempty" json:"-"`

	// RefreshTokenHash is the digest of the last issued refresh token.
	// An empty value means no session can be refreshed.
	RefreshTokenHash string `bson:"refreshTokenHash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Secret returns the stored secret reference for the given purpose.
func (u *User) Secret(purpose VerificationPurpose) SecretRef {
	switch purpose {
	case VerifyEmail:
		return u.EmailVerification
	case VerifyPhone:
		return u.PhoneVerification
	case ResetPassword:
		return u.PasswordReset
	}
	return SecretRef{}
}

// Sanitized returns a copy safe to hand to transport layers: credential
// hashes and secret references are stripped.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshTokenHash = ""
	u.EmailVerification = SecretRef{}
	u.PhoneVerification = SecretRef{}
	u.PasswordReset = SecretRef{}
	return u
}

// NormalizeIdentifier trims surrounding whitespace and lowercases the value.
// Usernames and emails are stored in this form so comparisons are
// case-insensitive by construction.
func NormalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ValidPhoneNumber reports whether the value is a fixed-length digit string.
// Phone numbers are modelled as strings, not integers: a leading zero must
// survive storage.
func ValidPhoneNumber(value string) bool {
	if len(value) != 10 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
