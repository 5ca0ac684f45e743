package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", topicUserRegistered),
		zap.String("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

// PublishSecretIssued logs notification.secret events. The plaintext is
// deliberately omitted from the log line.
func (p *StubPublisher) PublishSecretIssued(_ context.Context, event domain.SecretIssuedEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", topicSecretIssued),
		zap.String("user_id", event.UserID),
		zap.String("purpose", string(event.Purpose)),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

// PublishPasswordChanged logs user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", topicPasswordChanged),
		zap.String("user_id", event.UserID),
		zap.Time("changed_at", event.ChangedAt),
	)
	return nil
}

// PublishMessageSent logs chat.message.sent events.
func (p *StubPublisher) PublishMessageSent(_ context.Context, event domain.MessageSentEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", topicMessageSent),
		zap.String("message_id", event.MessageID),
		zap.String("chat_id", event.ChatID),
	)
	return nil
}
