package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/repository"
)

// ChatRepository implements port.ChatRepository on the chats collection.
type ChatRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewChatRepository wires a MongoDB-backed chat repository.
func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{
		collection: db.Collection("chats"),
		now:        time.Now,
	}
}

// Create inserts a new chat record, backfilling timestamps the caller did
// not stamp.
func (r *ChatRepository) Create(ctx context.Context, chat domain.Chat) error {
	now := r.now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = now
	}

	if _, err := r.collection.InsertOne(ctx, chat); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// GetByID retrieves a chat by identifier.
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	var chat domain.Chat
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return &chat, nil
}

// ListByParticipant returns the chats a user takes part in, most recently
// updated first.
func (r *ChatRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer cursor.Close(ctx)

	var chats []domain.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	return chats, nil
}

// SetLastMessage records the most recent message of the chat.
func (r *ChatRepository) SetLastMessage(ctx context.Context, chatID, messageID string) error {
	result, err := r.collection.UpdateByID(ctx, chatID, bson.M{"$set": bson.M{
		"lastMessage": messageID,
		"updatedAt":   r.now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
