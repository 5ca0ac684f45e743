package domain

import "time"

// UserRegisteredEvent announces a new identity record.
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// SecretIssuedEvent carries a freshly generated ephemeral secret to the
// notification pipeline for out-of-band delivery. This is the only place the
// plaintext travels; it is never persisted.
type SecretIssuedEvent struct {
	UserID    string              `json:"user_id"`
	Purpose   VerificationPurpose `json:"purpose"`
	Contact   string              `json:"contact"`
	Plaintext string              `json:"plaintext"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// PasswordChangedEvent records a credential rotation.
type PasswordChangedEvent struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// MessageSentEvent announces a persisted chat message.
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	SentAt    time.Time `json:"sent_at"`
}
