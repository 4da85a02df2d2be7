package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in MongoDB
type User struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"`
	Online     bool               `json:"online" bson:"online"`
	LastActive time.Time          `json:"lastActive" bson:"last_active"`
	Avatar     string             `json:"avatar" bson:"avatar"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updated_at"`
}

// UserSummary is the public projection of a user embedded in API
// responses and realtime payloads.
type UserSummary struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Online     bool      `json:"online" bson:"online"`
	LastActive time.Time `json:"lastActive" bson:"last_active"`
	Avatar     string    `json:"avatar,omitempty" bson:"avatar"`
}

// Summary converts a full user document into its public projection.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Online:     u.Online,
		LastActive: u.LastActive,
		Avatar:     u.Avatar,
	}
}
