package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/model"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrBadParticipants     = errors.New("a conversation needs exactly two distinct participants")
	ErrNotParticipant      = errors.New("requesting user is not a participant")
	ErrUnknownUser         = errors.New("user not found")
	ErrUnknownConversation = errors.New("conversation not found")
)

// DefaultPageLimit is the message page size when the caller does not
// specify one.
const DefaultPageLimit = 50

// MessagePage is one pagination step through a conversation's history.
// Messages are in chronological order; NextPage is the cursor for the
// following (older) page.
type MessagePage struct {
	Messages []model.EnrichedMessage `json:"messages"`
	HasMore  bool                    `json:"hasMore"`
	NextPage *time.Time              `json:"nextPage"`
}

// ReadReceipt reports the outcome of marking a conversation read.
type ReadReceipt struct {
	ConversationID string   `json:"conversationId"`
	UpdatedIDs     []string `json:"updatedMessageIds"`
	SenderIDs      []string `json:"senderIds"`
}

// SendResult bundles everything the caller needs after persisting a
// message: the enriched message, the resolved conversation id (virtual
// ids are materialised) and, when a conversation was materialised, its
// enriched view.
type SendResult struct {
	Message        model.EnrichedMessage
	ConversationID string
	Created        *model.ConversationView
}

type ChatService interface {
	GetOrCreateConversation(ctx context.Context, userID, otherUserID string) (*model.ConversationView, error)
	ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error)
	SendMessage(ctx context.Context, conversationID, senderID, recipientID, content, messageType string, fileURL, fileName *string) (*SendResult, error)
	GetMessages(ctx context.Context, conversationID string, before time.Time, limit int64) (*MessagePage, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (*ReadReceipt, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	users         repo.UserRepository
	logger        *zap.Logger
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		logger:        logger,
	}
}

// GetOrCreateConversation resolves the conversation for the unordered
// pair, creating it when absent. Idempotent: both ends racing to start
// a chat get the same document back.
func (s *chatService) GetOrCreateConversation(ctx context.Context, userID, otherUserID string) (*model.ConversationView, error) {
	if userID == "" || otherUserID == "" {
		return nil, ErrMissingFields
	}
	if userID == otherUserID {
		return nil, ErrBadParticipants
	}

	// Both participants must exist before the pair document is
	// upserted, otherwise an unknown id would persist a conversation
	// no later enrichment can resolve.
	for _, id := range []string{userID, otherUserID} {
		if _, err := s.users.FindByID(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownUser, id)
			}
			return nil, err
		}
	}

	conversation, err := s.conversations.GetOrCreate(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	return s.enrichConversation(ctx, conversation)
}

func (s *chatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error) {
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ConversationView, 0, len(conversations))
	for i := range conversations {
		view, err := s.enrichConversation(ctx, &conversations[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// SendMessage validates sender/recipient, materialises virtual
// conversation ids, appends the message and then refreshes the
// conversation summary so it always reflects the newest persisted
// message.
func (s *chatService) SendMessage(ctx context.Context, conversationID, senderID, recipientID, content, messageType string, fileURL, fileName *string) (*SendResult, error) {
	if senderID == "" || recipientID == "" || content == "" {
		return nil, ErrMissingFields
	}
	if messageType != "" && !model.ValidMessageType(messageType) {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrMissingFields, messageType)
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: sender %s", ErrUnknownUser, senderID)
		}
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, recipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: recipient %s", ErrUnknownUser, recipientID)
		}
		return nil, err
	}

	var conversation *model.Conversation
	var created *model.ConversationView

	if conversationID == "" || model.IsVirtualID(conversationID) {
		// Client-local placeholder id: resolve to the real
		// conversation for the pair, creating it when absent.
		conversation, err = s.conversations.GetOrCreate(ctx, senderID, recipientID)
		if err != nil {
			return nil, err
		}
		if conversation.LastMessage == nil {
			created, err = s.enrichConversation(ctx, conversation)
			if err != nil {
				return nil, err
			}
		}
	} else {
		conversation, err = s.conversations.FindByID(ctx, conversationID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidConversationID) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
			}
			return nil, err
		}
	}

	if !conversation.HasParticipant(senderID) || !conversation.HasParticipant(recipientID) {
		return nil, ErrNotParticipant
	}

	msg := &model.Message{
		ConversationID: conversation.ID,
		Sender:         senderID,
		Content:        content,
		MessageType:    messageType,
		FileURL:        fileURL,
		FileName:       fileName,
	}

	persisted, err := s.messages.Append(ctx, msg)
	if err != nil {
		return nil, err
	}

	last := model.LastMessage{
		Content:   persisted.Content,
		Sender:    senderID,
		Timestamp: persisted.CreatedAt,
	}
	if err := s.conversations.UpdateSummary(ctx, conversation.ID.Hex(), last, recipientID); err != nil {
		return nil, err
	}

	return &SendResult{
		Message: model.EnrichedMessage{
			Message:    *persisted,
			SenderInfo: sender.Summary(),
		},
		ConversationID: conversation.ID.Hex(),
		Created:        created,
	}, nil
}

// GetMessages walks message history backward from the cursor. Virtual
// conversation ids short-circuit to an empty page without touching the
// store.
func (s *chatService) GetMessages(ctx context.Context, conversationID string, before time.Time, limit int64) (*MessagePage, error) {
	if conversationID == "" {
		return nil, ErrMissingFields
	}
	if model.IsVirtualID(conversationID) {
		return &MessagePage{Messages: []model.EnrichedMessage{}, HasMore: false, NextPage: nil}, nil
	}
	if _, err := primitive.ObjectIDFromHex(conversationID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if before.IsZero() {
		before = time.Now()
	}

	messages, err := s.messages.ListBefore(ctx, conversationID, before, limit)
	if err != nil {
		return nil, err
	}

	hasMore := int64(len(messages)) == limit
	var nextPage *time.Time
	if len(messages) > 0 {
		oldest := messages[len(messages)-1].CreatedAt
		nextPage = &oldest
	}

	enriched, err := s.enrichMessages(ctx, messages)
	if err != nil {
		return nil, err
	}

	// Store returns newest first; present chronologically.
	for i, j := 0, len(enriched)-1; i < j; i, j = i+1, j-1 {
		enriched[i], enriched[j] = enriched[j], enriched[i]
	}

	return &MessagePage{
		Messages: enriched,
		HasMore:  hasMore,
		NextPage: nextPage,
	}, nil
}

// MarkConversationRead is the single idempotent read-receipt operation
// shared by the HTTP and socket paths: flips unread messages from the
// other participant to read and zeroes the reader's unread counter.
func (s *chatService) MarkConversationRead(ctx context.Context, conversationID, readerID string) (*ReadReceipt, error) {
	if conversationID == "" || readerID == "" {
		return nil, ErrMissingFields
	}
	if model.IsVirtualID(conversationID) {
		return &ReadReceipt{ConversationID: conversationID, UpdatedIDs: []string{}, SenderIDs: []string{}}, nil
	}
	if _, err := primitive.ObjectIDFromHex(conversationID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
	}

	messages, err := s.messages.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.ResetUnread(ctx, conversationID, readerID); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(messages))
	senderSet := make(map[string]struct{})
	senders := make([]string, 0, 1)
	for i := range messages {
		ids = append(ids, messages[i].ID.Hex())
		if _, seen := senderSet[messages[i].Sender]; !seen {
			senderSet[messages[i].Sender] = struct{}{}
			senders = append(senders, messages[i].Sender)
		}
	}

	return &ReadReceipt{
		ConversationID: conversationID,
		UpdatedIDs:     ids,
		SenderIDs:      senders,
	}, nil
}

func (s *chatService) SetOnline(ctx context.Context, userID string, online bool) error {
	return s.users.SetOnline(ctx, userID, online)
}

func (s *chatService) enrichConversation(ctx context.Context, conversation *model.Conversation) (*model.ConversationView, error) {
	details, err := s.users.FindSummaries(ctx, conversation.Participants)
	if err != nil {
		return nil, err
	}
	return &model.ConversationView{
		Conversation:       *conversation,
		ParticipantDetails: details,
	}, nil
}

func (s *chatService) enrichMessages(ctx context.Context, messages []model.Message) ([]model.EnrichedMessage, error) {
	enriched := make([]model.EnrichedMessage, 0, len(messages))
	if len(messages) == 0 {
		return enriched, nil
	}

	senderSet := make(map[string]struct{})
	senderIDs := make([]string, 0, 2)
	for i := range messages {
		if _, seen := senderSet[messages[i].Sender]; !seen {
			senderSet[messages[i].Sender] = struct{}{}
			senderIDs = append(senderIDs, messages[i].Sender)
		}
	}

	summaries, err := s.users.FindSummaries(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.UserSummary, len(summaries))
	for _, summary := range summaries {
		byID[summary.ID] = summary
	}

	for i := range messages {
		enriched = append(enriched, model.EnrichedMessage{
			Message:    messages[i],
			SenderInfo: byID[messages[i].Sender],
		})
	}
	return enriched, nil
}
