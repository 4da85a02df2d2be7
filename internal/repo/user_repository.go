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
	"go.uber.org/zap"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (string, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindSummaries(ctx context.Context, ids []string) ([]model.UserSummary, error)
	ListOthers(ctx context.Context, excludeID string) ([]model.UserSummary, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) (string, error) {
	if user == nil || user.Email == "" {
		return "", ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	exists, err := r.mongoRepo.Exists(ctx, db.NewFilter().Eq("email", user.Email).Build())
	if err != nil {
		return "", fmt.Errorf("email existence check failed: %w", err)
	}
	if exists {
		return "", ErrDuplicateEmail
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastActive = now

	result, err := r.mongoRepo.Create(ctx, *user)
	if err != nil {
		r.logger.Error("failed to insert user", zap.Error(err))
		return "", fmt.Errorf("insert user failed: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	user.ID = oid

	r.logger.Info("user created", zap.String("user_id", oid.Hex()))
	return oid.Hex(), nil
}

// FindByID returns ErrNotFound for ids that cannot name any user,
// malformed hex included.
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("email", email).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindSummaries(ctx context.Context, ids []string) ([]model.UserSummary, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidUserID, id)
		}
		objectIDs = append(objectIDs, oid)
	}

	users, err := r.mongoRepo.Find(ctx, db.NewFilter().In("_id", objectIDs).Build())
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	summaries := make([]model.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

func (r *userRepository) ListOthers(ctx context.Context, excludeID string) ([]model.UserSummary, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUserID, excludeID)
	}

	users, err := r.mongoRepo.Find(ctx, db.NewFilter().Ne("_id", oid).Build())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	summaries := make([]model.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

// SetOnline mirrors the presence transition into the user document.
// Going offline also stamps last_active so clients can show "last seen".
func (r *userRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	set := bson.M{"online": online, "updated_at": time.Now()}
	if !online {
		set["last_active"] = time.Now()
	}

	_, err := r.mongoRepo.UpdateByID(ctx, userID, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("failed to update online status",
			zap.String("user_id", userID),
			zap.Bool("online", online),
			zap.Error(err),
		)
		return fmt.Errorf("set online status: %w", err)
	}
	return nil
}
