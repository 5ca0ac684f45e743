package port

import (
	"context"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
)

// ChatRepository persists conversation records.
type ChatRepository interface {
	Create(ctx context.Context, chat domain.Chat) error
	GetByID(ctx context.Context, id string) (*domain.Chat, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Chat, error)
	SetLastMessage(ctx context.Context, chatID, messageID string) error
}

// MessageRepository persists chat messages.
type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByChat(ctx context.Context, chatID string, limit int) ([]domain.Message, error)
}
