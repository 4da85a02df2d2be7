package event

// -----------------------------------------------------------------
// Inbound payloads
// -----------------------------------------------------------------

// RoomPayload carries the conversation id for join/leave/typing events.
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}

// SendMessagePayload is the inbound send_message body.
type SendMessagePayload struct {
	ConversationID string  `json:"conversationId"`
	Recipient      string  `json:"recipient"`
	Content        string  `json:"content"`
	MessageType    string  `json:"messageType,omitempty"`
	FileURL        *string `json:"fileUrl,omitempty"`
	FileName       *string `json:"fileName,omitempty"`
}

// MessagesReadPayload is the inbound messages_read body.
type MessagesReadPayload struct {
	ConversationID string   `json:"conversationId"`
	MessageIDs     []string `json:"messageIds"`
}

// CreateConversationPayload is the inbound create_conversation body.
type CreateConversationPayload struct {
	Participants []string `json:"participants"`
}

// -----------------------------------------------------------------
// Outbound payloads
// -----------------------------------------------------------------

// OnlineUsersPayload lists the ids of currently connected users.
type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

// UserStatusPayload announces a presence transition.
type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// UserTypingPayload announces a typing-state change inside a room.
type UserTypingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// MessagesReadUpdatePayload notifies a room that messages were read.
type MessagesReadUpdatePayload struct {
	ConversationID string   `json:"conversationId"`
	MessageIDs     []string `json:"messageIds"`
	ReadBy         string   `json:"readBy"`
}

// ConversationUpdatedPayload carries a refreshed conversation summary.
type ConversationUpdatedPayload struct {
	ConversationID string `json:"conversationId"`
	LastMessage    any    `json:"lastMessage"`
}

// ErrorPayload represents an error response sent to client via WebSocket
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
