package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/db"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MessageRepository interface {
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)
	ListBefore(ctx context.Context, conversationID string, before time.Time, limit int64) ([]model.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) ([]model.Message, error)
}

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// Append persists a new message. The creation timestamp is assigned
// here so per-conversation ordering follows insertion order.
func (m *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil {
		return nil, ErrInvalidMessage
	}
	if msg.ConversationID.IsZero() {
		return nil, ErrInvalidConversationID
	}
	if msg.Sender == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if msg.MessageType == "" {
		msg.MessageType = model.MessageTypeText
	}
	msg.Read = false
	msg.CreatedAt = time.Now()

	result, err := m.mongoRepo.Create(ctx, *msg)
	if err != nil {
		m.logger.Error("failed to insert message",
			zap.String("conversation_id", msg.ConversationID.Hex()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert message failed: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}

	m.logger.Info("message inserted",
		zap.String("message_id", msg.ID.Hex()),
		zap.String("conversation_id", msg.ConversationID.Hex()),
	)
	return msg, nil
}

// ListBefore returns up to limit messages created strictly before the
// cursor, newest first. Callers reverse for chronological display.
func (m *messageRepository) ListBefore(ctx context.Context, conversationID string, before time.Time, limit int64) ([]model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConversationID, conversationID)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("conversation_id", oid).
		Lt("created_at", before).
		Build()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	messages, err := m.mongoRepo.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}

	m.logger.Debug("messages listed",
		zap.String("conversation_id", conversationID),
		zap.Int("count", len(messages)),
	)
	return messages, nil
}

// MarkRead flips read=true on every unread message in the conversation
// that the reader did not send, then returns the now-read messages from
// the other participant. Running it twice is a no-op, the flag only
// moves false -> true.
func (m *messageRepository) MarkRead(ctx context.Context, conversationID, readerID string) ([]model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConversationID, conversationID)
	}
	if readerID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	unread := db.NewFilter().
		Eq("conversation_id", oid).
		Ne("sender", readerID).
		Eq("read", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, unread, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return nil, fmt.Errorf("mark messages read failed: %w", err)
	}

	read := db.NewFilter().
		Eq("conversation_id", oid).
		Ne("sender", readerID).
		Eq("read", true).
		Build()

	messages, err := m.mongoRepo.Find(ctx, read)
	if err != nil {
		return nil, fmt.Errorf("fetch read messages failed: %w", err)
	}

	m.logger.Debug("messages marked read",
		zap.String("conversation_id", conversationID),
		zap.String("reader_id", readerID),
		zap.Int64("updated", result.ModifiedCount),
	)
	return messages, nil
}
