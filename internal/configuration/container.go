package configuration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/auth"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/db"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/handler"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/hub"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/model"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/repo"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	AuthHandler    handler.AuthHandler
	ChatHandler    handler.ChatHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Verifier       *auth.Verifier
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoDB *mongo.Database
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if config.Auth.Secret == "" {
		return nil, fmt.Errorf("auth secret is required (SECRET env or config)")
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	logger, _ := zap.NewProduction()

	userRepo := db.NewRepository[model.User](con, config.Mongo.UsersCollection)
	conversationRepo := db.NewRepository[model.Conversation](con, config.Mongo.ConversationsCollection)
	messageRepo := db.NewRepository[model.Message](con, config.Mongo.MessagesCollection)

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureIndexes(indexCtx, conversationRepo); err != nil {
		return nil, err
	}

	users := repo.NewUserRepository(userRepo, logger)
	conversations := repo.NewConversationRepository(conversationRepo, logger)
	messages := repo.NewMessageRepository(messageRepo, logger)

	verifier := auth.NewVerifier(config.Auth.Secret, time.Duration(config.Auth.TokenTTLHours)*time.Hour)

	userService := service.NewUserService(users, verifier, logger)
	chatService := service.NewChatService(conversations, messages, users, logger)

	gatewayHub := hub.NewHub(chatService, verifier, config.CORS.AllowedOrigins, logger)
	monitor := hub.NewMonitorService(gatewayHub)

	return &Container{
		AuthHandler:    handler.NewAuthHandler(userService),
		ChatHandler:    handler.NewChatHandler(chatService, userService, gatewayHub),
		MonitorHandler: handler.NewMonitorHandler(monitor),
		Hub:            gatewayHub,
		Verifier:       verifier,
		Config:         *config,
		Logger:         logger,
		mongoDB:        con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDB.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
