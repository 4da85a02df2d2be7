package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message type tags
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeAudio = "audio"
)

// ValidMessageType reports whether t is a recognised message type tag.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeAudio:
		return true
	}
	return false
}

// Message represents a chat message in MongoDB. Immutable after
// creation except the read flag, which only transitions false -> true.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	Sender         string             `json:"sender" bson:"sender"`
	Content        string             `json:"content" bson:"content"`
	MessageType    string             `json:"messageType" bson:"message_type"`
	FileURL        *string            `json:"fileUrl" bson:"file_url"`
	FileName       *string            `json:"fileName" bson:"file_name"`
	Read           bool               `json:"read" bson:"read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}

// EnrichedMessage is a message with its sender resolved to a user
// summary, the shape delivered over the socket and the messages API.
type EnrichedMessage struct {
	Message
	SenderInfo UserSummary `json:"senderInfo"`
}
