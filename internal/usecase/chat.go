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
)

var (
	// ErrNotParticipant indicates the user does not take part in the chat.
	ErrNotParticipant = errors.New("user is not a chat participant")
	// ErrEmptyMessage indicates a message with neither content nor
	// attachments.
	ErrEmptyMessage = errors.New("message must carry content or attachments")
	// ErrTooFewParticipants indicates a chat with fewer than two members.
	ErrTooFewParticipants = errors.New("chat needs at least two participants")
)

// ChatService manages conversations and message delivery.
type ChatService struct {
	chats    port.ChatRepository
	messages port.MessageRepository
	users    port.UserRepository
	events   port.EventPublisher
	now      func() time.Time
}

// NewChatService constructs a chat service.
func NewChatService(chats port.ChatRepository, messages port.MessageRepository, users port.UserRepository, events port.EventPublisher) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		users:    users,
		events:   events,
		now:      time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateChat opens a conversation. The creator becomes the admin and is
// always included in the participant set. Participant ids must resolve to
// existing users.
func (s *ChatService) CreateChat(ctx context.Context, creatorID, name string, participantIDs []string, isGroup bool) (domain.Chat, error) {
	members := dedupe(append([]string{creatorID}, participantIDs...))
	if len(members) < 2 {
		return domain.Chat{}, ErrTooFewParticipants
	}

	for _, id := range members {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return domain.Chat{}, fmt.Errorf("resolve participant %s: %w", id, err)
		}
	}

	now := s.now().UTC()
	chat := domain.Chat{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		IsGroupChat:  isGroup,
		Participants: members,
		AdminID:      creatorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.chats.Create(ctx, chat); err != nil {
		return domain.Chat{}, fmt.Errorf("create chat: %w", err)
	}

	return chat, nil
}

// ListChats returns the conversations the user takes part in.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	return s.chats.ListByParticipant(ctx, userID)
}

// SendMessage persists a message in a chat the sender participates in and
// advances the chat's last message pointer.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID, content string, attachments []domain.Attachment) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return domain.Message{}, ErrEmptyMessage
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("lookup chat: %w", err)
	}
	if !chat.HasParticipant(senderID) {
		return domain.Message{}, ErrNotParticipant
	}

	if attachments == nil {
		attachments = []domain.Attachment{}
	}

	now := s.now().UTC()
	message := domain.Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	if err := s.chats.SetLastMessage(ctx, chatID, message.ID); err != nil {
		return domain.Message{}, fmt.Errorf("advance last message: %w", err)
	}

	if s.events != nil {
		event := domain.MessageSentEvent{
			MessageID: message.ID,
			ChatID:    chatID,
			SenderID:  senderID,
			SentAt:    message.CreatedAt,
		}
		// The message is already persisted; the event only feeds fan-out,
		// so delivery is best effort.
		_ = s.events.PublishMessageSent(ctx, event)
	}

	return message, nil
}

// ListMessages returns recent messages for a chat the user participates in.
func (s *ChatService) ListMessages(ctx context.Context, chatID, userID string, limit int) ([]domain.Message, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("lookup chat: %w", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return s.messages.ListByChat(ctx, chatID, limit)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
