package port

import (
	"context"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
)

// EventPublisher pushes domain events to the messaging backbone. Secret
// issuance events feed the notification pipeline that delivers plaintext
// codes to users out of band.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishSecretIssued(ctx context.Context, event domain.SecretIssuedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error
}
