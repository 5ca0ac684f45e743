package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/infra/config"
	"github.com/KatanaSword/chit-chat/internal/infra/logger"
)

const schemaVersion = "1.0"

const (
	topicUserRegistered  = "user.registered"
	topicSecretIssued    = "notification.secret"
	topicPasswordChanged = "user.password.changed"
	topicMessageSent     = "chat.message.sent"
)

// EventPublisher implements port.EventPublisher using Kafka. Secret
// issuance events carry the plaintext to the notification pipeline; the
// topic is the out-of-band delivery channel.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey{}).(string); ok && requestID != "" {
		metadata["request_id"] = requestID
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", eventType, ctx.Err())
	}
}

// PublishUserRegistered emits a user.registered event.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	return p.publish(ctx, topicUserRegistered, event.UserID, event.RegisteredAt, event)
}

// PublishSecretIssued emits a notification.secret event for out-of-band
// delivery of the plaintext.
func (p *EventPublisher) PublishSecretIssued(ctx context.Context, event domain.SecretIssuedEvent) error {
	return p.publish(ctx, topicSecretIssued, event.UserID, time.Time{}, event)
}

// PublishPasswordChanged emits a user.password.changed event.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(ctx, topicPasswordChanged, event.UserID, event.ChangedAt, event)
}

// PublishMessageSent emits a chat.message.sent event.
func (p *EventPublisher) PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error {
	return p.publish(ctx, topicMessageSent, event.SenderID, event.SentAt, event)
}
