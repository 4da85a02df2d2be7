package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/auth"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ChatHandler interface {
	GetConversation(c *gin.Context)
	GetConversations(c *gin.Context)
	SendMessage(c *gin.Context)
	GetMessages(c *gin.Context)
	MarkAsRead(c *gin.Context)
	GetAllUsers(c *gin.Context)
}

// ReadNotifier lets the HTTP read-receipt path push the realtime
// messages_read_update fan-out through the gateway.
type ReadNotifier interface {
	NotifyMessagesRead(conversationID string, messageIDs []string, readBy string)
}

type chatHandler struct {
	chat     service.ChatService
	users    service.UserService
	notifier ReadNotifier
}

func NewChatHandler(chat service.ChatService, users service.UserService, notifier ReadNotifier) ChatHandler {
	return &chatHandler{
		chat:     chat,
		users:    users,
		notifier: notifier,
	}
}

// GetConversation gets or creates the conversation between the
// authenticated user and :otherUserId.
func (h *chatHandler) GetConversation(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	otherUserID := c.Param("otherUserId")
	view, err := h.chat.GetOrCreateConversation(c.Request.Context(), identity.UserID, otherUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *chatHandler) GetConversations(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	views, err := h.chat.ListConversations(c.Request.Context(), identity.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

type sendMessageRequest struct {
	ConversationID string  `json:"conversationId"`
	Recipient      string  `json:"recipient" binding:"required"`
	Content        string  `json:"content" binding:"required"`
	MessageType    string  `json:"messageType"`
	FileURL        *string `json:"fileUrl"`
	FileName       *string `json:"fileName"`
}

func (h *chatHandler) SendMessage(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	result, err := h.chat.SendMessage(c.Request.Context(), req.ConversationID, identity.UserID,
		req.Recipient, req.Content, req.MessageType, req.FileURL, req.FileName)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        result.Message,
		"conversationId": result.ConversationID,
	})
}

// GetMessages returns a page of history for :conversationId. Cursor is
// the "before" query parameter in unix milliseconds; default now.
func (h *chatHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")

	before := time.Now()
	if v := c.Query("before"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before cursor"})
			return
		}
		before = time.UnixMilli(ms)
	}

	limit := int64(service.DefaultPageLimit)
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	page, err := h.chat.GetMessages(c.Request.Context(), conversationID, before, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var nextPage *int64
	if page.NextPage != nil {
		ms := page.NextPage.UnixMilli()
		nextPage = &ms
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": page.Messages,
		"hasMore":  page.HasMore,
		"nextPage": nextPage,
	})
}

type markAsReadRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
}

func (h *chatHandler) MarkAsRead(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req markAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing conversationId"})
		return
	}

	receipt, err := h.chat.MarkConversationRead(c.Request.Context(), req.ConversationID, identity.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.notifier != nil && len(receipt.UpdatedIDs) > 0 {
		h.notifier.NotifyMessagesRead(receipt.ConversationID, receipt.UpdatedIDs, identity.UserID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"updatedCount":      len(receipt.UpdatedIDs),
		"updatedMessageIds": receipt.UpdatedIDs,
		"senderIds":         receipt.SenderIDs,
	})
}

func (h *chatHandler) GetAllUsers(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	users, err := h.users.ListOthers(c.Request.Context(), identity.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// respondServiceError maps domain errors to HTTP status codes: 400
// validation, 403 authorization, 404 not found, 500 store.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrBadParticipants):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownUser),
		errors.Is(err, service.ErrUnknownConversation):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
