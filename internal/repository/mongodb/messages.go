package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
)

const defaultMessageLimit = 50

// MessageRepository implements port.MessageRepository on the messages
// collection.
type MessageRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMessageRepository wires a MongoDB-backed message repository.
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		collection: db.Collection("messages"),
		now:        time.Now,
	}
}

// Create inserts a new message, backfilling timestamps the caller did not
// stamp.
func (r *MessageRepository) Create(ctx context.Context, message domain.Message) error {
	now := r.now().UTC()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	if message.UpdatedAt.IsZero() {
		message.UpdatedAt = now
	}
	if message.Attachments == nil {
		message.Attachments = []domain.Attachment{}
	}

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByChat returns the most recent messages of a chat, newest first.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"chat": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}
