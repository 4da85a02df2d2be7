package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/db"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ConversationRepository interface {
	GetOrCreate(ctx context.Context, a, b string) (*model.Conversation, error)
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	UpdateSummary(ctx context.Context, id string, last model.LastMessage, recipientID string) error
	ResetUnread(ctx context.Context, id, userID string) error
}

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

func NewConversationRepository(repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// EnsureIndexes creates the unique pair_key index that closes the
// concurrent get-or-create race at the store level.
func EnsureIndexes(ctx context.Context, repo *db.Repository[model.Conversation]) error {
	_, err := repo.Collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create pair_key index: %w", err)
	}
	return nil
}

// GetOrCreate returns the conversation for the unordered pair (a, b),
// creating it atomically when absent. Both ends racing to start a chat
// resolve to the same document.
func (r *conversationRepository) GetOrCreate(ctx context.Context, a, b string) (*model.Conversation, error) {
	if a == "" || b == "" || a == b {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	pairKey := model.PairKey(a, b)
	now := time.Now()
	insert := bson.M{
		"participants": []string{a, b},
		"pair_key":     pairKey,
		"last_message": nil,
		"unread_count": map[string]int{a: 0, b: 0},
		"created_at":   now,
		"updated_at":   now,
	}

	conversation, err := r.mongoRepo.FindOneAndUpsert(ctx, db.NewFilter().Eq("pair_key", pairKey).Build(), insert)
	if err != nil {
		r.logger.Error("get-or-create conversation failed",
			zap.String("pair_key", pairKey),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}

	return conversation, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConversationID, id)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conversation, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return conversation, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_message.timestamp", Value: -1}})
	conversations, err := r.mongoRepo.Find(ctx, db.NewFilter().Eq("participants", userID).Build(), opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	r.logger.Debug("conversations retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(conversations)),
	)
	return conversations, nil
}

// UpdateSummary overwrites last_message and increments the recipient's
// unread counter in one document update.
func (r *conversationRepository) UpdateSummary(ctx context.Context, id string, last model.LastMessage, recipientID string) error {
	if recipientID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"last_message": last,
			"updated_at":   time.Now(),
		},
		"$inc": bson.M{
			"unread_count." + recipientID: 1,
		},
	}

	_, err := r.mongoRepo.UpdateByID(ctx, id, update)
	if err != nil {
		r.logger.Error("failed to update conversation summary",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("update conversation summary: %w", err)
	}
	return nil
}

// ResetUnread zeroes the reader's unread counter.
func (r *conversationRepository) ResetUnread(ctx context.Context, id, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"unread_count." + userID: 0,
		},
	}

	_, err := r.mongoRepo.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("reset unread count: %w", err)
	}
	return nil
}
