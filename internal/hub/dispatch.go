package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/event"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/service"
	"go.uber.org/zap"
)

// Error codes surfaced to clients through the error event.
const (
	codeValidation   = "validation_error"
	codeUnauthorized = "unauthorized"
	codeNotFound     = "not_found"
	codeStore        = "store_error"
)

// route dispatches one inbound event to its handler. Handler failures
// never terminate the connection; they surface as error events.
func (h *Hub) route(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventJoinConversation:
		h.handleJoinConversation(ev, c)
	case event.EventLeaveConversation:
		h.handleLeaveConversation(ev, c)
	case event.EventSendMessage:
		h.handleSendMessage(ev, c)
	case event.EventTyping:
		h.handleTyping(ev, c, true)
	case event.EventStopTyping:
		h.handleTyping(ev, c, false)
	case event.EventMessagesRead:
		h.handleMessagesRead(ev, c)
	case event.EventCreateConversation:
		h.handleCreateConversation(ev, c)
	default:
		h.logger.Debug("unknown event type",
			zap.String("event", ev.Event),
			zap.String("client_id", c.ID),
		)
		h.sendError(c, codeValidation, "unknown event: "+ev.Event)
	}
}

func (h *Hub) handleJoinConversation(ev event.WsEvent, c *Client) {
	payload, ok := decode[event.RoomPayload](h, ev, c)
	if !ok {
		return
	}
	if payload.ConversationID == "" {
		h.sendError(c, codeValidation, "conversationId is required")
		return
	}
	h.joinRoom(payload.ConversationID, c)
}

func (h *Hub) handleLeaveConversation(ev event.WsEvent, c *Client) {
	payload, ok := decode[event.RoomPayload](h, ev, c)
	if !ok {
		return
	}
	if payload.ConversationID == "" {
		h.sendError(c, codeValidation, "conversationId is required")
		return
	}
	h.leaveRoom(payload.ConversationID, c)
}

func (h *Hub) handleSendMessage(ev event.WsEvent, c *Client) {
	payload, ok := decode[event.SendMessagePayload](h, ev, c)
	if !ok {
		return
	}
	if payload.Recipient == "" || payload.Content == "" {
		h.sendError(c, codeValidation, "recipient and content are required")
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	result, err := h.chat.SendMessage(ctx, payload.ConversationID, c.UserID,
		payload.Recipient, payload.Content, payload.MessageType, payload.FileURL, payload.FileName)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	if result.Created != nil {
		// The conversation was just materialised from a virtual id:
		// pull both ends into the room before fanning out.
		h.joinRoom(result.ConversationID, c)
		if other, online := h.presence.Lookup(payload.Recipient); online {
			h.joinRoom(result.ConversationID, other)
			other.Send(event.New(event.EventConversationCreated, result.Created))
		}
	}

	h.broadcastRoom(result.ConversationID,
		event.New(event.EventNewMessage, result.Message), c.UserID)

	if _, online := h.presence.Lookup(payload.Recipient); online {
		h.notifyUser(payload.Recipient, event.New(event.EventConversationUpdated,
			event.ConversationUpdatedPayload{
				ConversationID: result.ConversationID,
				LastMessage:    result.Message.Message,
			}))
	}
}

func (h *Hub) handleTyping(ev event.WsEvent, c *Client, isTyping bool) {
	payload, ok := decode[event.RoomPayload](h, ev, c)
	if !ok {
		return
	}
	if payload.ConversationID == "" {
		h.sendError(c, codeValidation, "conversationId is required")
		return
	}

	h.broadcastRoom(payload.ConversationID, event.New(event.EventUserTyping,
		event.UserTypingPayload{
			UserID:         c.UserID,
			ConversationID: payload.ConversationID,
			IsTyping:       isTyping,
		}), c.UserID)
}

func (h *Hub) handleMessagesRead(ev event.WsEvent, c *Client) {
	payload, ok := decode[event.MessagesReadPayload](h, ev, c)
	if !ok {
		return
	}
	if payload.ConversationID == "" || len(payload.MessageIDs) == 0 {
		h.sendError(c, codeValidation, "conversationId and messageIds are required")
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	receipt, err := h.chat.MarkConversationRead(ctx, payload.ConversationID, c.UserID)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	h.broadcastRoom(payload.ConversationID, event.New(event.EventMessagesReadUpdate,
		event.MessagesReadUpdatePayload{
			ConversationID: payload.ConversationID,
			MessageIDs:     receipt.UpdatedIDs,
			ReadBy:         c.UserID,
		}), c.UserID)
}

func (h *Hub) handleCreateConversation(ev event.WsEvent, c *Client) {
	payload, ok := decode[event.CreateConversationPayload](h, ev, c)
	if !ok {
		return
	}
	if len(payload.Participants) != 2 || payload.Participants[0] == payload.Participants[1] {
		h.sendError(c, codeValidation, "exactly two distinct participants are required")
		return
	}

	requesterIncluded := false
	other := ""
	for _, p := range payload.Participants {
		if p == c.UserID {
			requesterIncluded = true
		} else {
			other = p
		}
	}
	if !requesterIncluded {
		h.sendError(c, codeUnauthorized, "requesting user must be a participant")
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	view, err := h.chat.GetOrCreateConversation(ctx, c.UserID, other)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	conversationID := view.ID.Hex()
	h.joinRoom(conversationID, c)
	c.Send(event.New(event.EventConversationCreated, view))

	if otherClient, online := h.presence.Lookup(other); online {
		h.joinRoom(conversationID, otherClient)
		otherClient.Send(event.New(event.EventConversationCreated, view))
	}
}

// NotifyMessagesRead fans out a read receipt produced outside the
// socket path (the HTTP mark-as-read endpoint) to the conversation
// room, excluding the reader.
func (h *Hub) NotifyMessagesRead(conversationID string, messageIDs []string, readBy string) {
	h.broadcastRoom(conversationID, event.New(event.EventMessagesReadUpdate,
		event.MessagesReadUpdatePayload{
			ConversationID: conversationID,
			MessageIDs:     messageIDs,
			ReadBy:         readBy,
		}), readBy)
}

// -----------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------

func decode[T any](h *Hub, ev event.WsEvent, c *Client) (T, bool) {
	var payload T
	if len(ev.Payload) == 0 {
		h.sendError(c, codeValidation, "payload is required")
		return payload, false
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		h.sendError(c, codeValidation, "malformed payload")
		return payload, false
	}
	return payload, true
}

func (h *Hub) storeContext(c *Client) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, storeCallTimeout)
}

func (h *Hub) sendError(c *Client, code, message string) {
	c.Send(event.New(event.EventError, event.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// sendServiceError maps domain errors to client-facing error codes.
// Store failures are logged and surfaced generically; the connection
// stays open.
func (h *Hub) sendServiceError(c *Client, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrBadParticipants):
		h.sendError(c, codeValidation, err.Error())
	case errors.Is(err, service.ErrNotParticipant):
		h.sendError(c, codeUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnknownUser),
		errors.Is(err, service.ErrUnknownConversation):
		h.sendError(c, codeNotFound, err.Error())
	default:
		h.logger.Error("store operation failed",
			zap.String("client_id", c.ID),
			zap.String("user_id", c.UserID),
			zap.Error(err),
		)
		h.sendError(c, codeStore, "operation failed")
	}
}
