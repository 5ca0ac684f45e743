package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/KatanaSword/chit-chat/internal/infra/config"
)

// Client wraps the MongoDB connection and the service database handle.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.MongoSettings, logger *zap.Logger) (*Client, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("mongo connection established", zap.String("database", cfg.Database))

	return &Client{
		client:   client,
		database: client.Database(cfg.Database),
		logger:   logger,
	}, nil
}

// Database returns the service database handle.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Ping verifies the connection is alive, for readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely
// on. Uniqueness of username, email, and phone number is enforced here, at
// the store boundary.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_1"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_1"),
		},
		{
			Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("phoneNumber_1"),
		},
	}
	if _, err := c.database.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	chatIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "participants", Value: 1}}},
	}
	if _, err := c.database.Collection("chats").Indexes().CreateMany(ctx, chatIndexes); err != nil {
		return fmt.Errorf("create chat indexes: %w", err)
	}

	messageIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := c.database.Collection("messages").Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}

	return nil
}
