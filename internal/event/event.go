package event

import "encoding/json"

// Inbound (client -> server) event names
const (
	EventJoinConversation   = "join_conversation"
	EventLeaveConversation  = "leave_conversation"
	EventSendMessage        = "send_message"
	EventTyping             = "typing"
	EventStopTyping         = "stop_typing"
	EventMessagesRead       = "messages_read"
	EventCreateConversation = "create_conversation"
)

// Outbound (server -> client) event names
const (
	EventOnlineUsers         = "online_users"
	EventUserStatus          = "user_status"
	EventNewMessage          = "new_message"
	EventConversationUpdated = "conversation_updated"
	EventUserTyping          = "user_typing"
	EventMessagesReadUpdate  = "messages_read_update"
	EventConversationCreated = "conversation_created"
	EventError               = "error"
)

// User status values carried by user_status events
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// WsEvent is the wire envelope for every socket event in both
// directions.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New builds an outbound event, marshalling payload into the envelope.
// A payload that fails to marshal yields an envelope with no payload;
// all our payload types are plain data and marshal unconditionally.
func New(name string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{Event: name}
	}
	return WsEvent{Event: name, Payload: raw}
}
