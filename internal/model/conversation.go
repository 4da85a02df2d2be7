package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VirtualIDPrefix marks client-generated placeholder conversation ids
// used before the server-assigned conversation exists.
const VirtualIDPrefix = "temp-"

// IsVirtualID reports whether id is a client-local placeholder id.
func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, VirtualIDPrefix)
}

// Conversation represents a two-party conversation document in MongoDB.
// Participants are stored as hex user ids; PairKey is the sorted pair
// joined with ":" and carries a unique index so get-or-create stays
// race-free.
type Conversation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Participants []string           `json:"participants" bson:"participants"`
	PairKey      string             `json:"-" bson:"pair_key"`
	LastMessage  *LastMessage       `json:"lastMessage" bson:"last_message"`
	UnreadCount  map[string]int     `json:"unreadCount" bson:"unread_count"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

// LastMessage stores the most recent message preview on a conversation.
type LastMessage struct {
	Content   string    `json:"content" bson:"content"`
	Sender    string    `json:"sender" bson:"sender"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// PairKey derives the canonical key for an unordered participant pair.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}

// OtherParticipant returns the participant that is not userID, or ""
// when userID is not part of the conversation.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ConversationView is a conversation with its participants resolved to
// user summaries, the shape returned by the HTTP and socket APIs.
type ConversationView struct {
	Conversation
	ParticipantDetails []UserSummary `json:"participantDetails"`
}
