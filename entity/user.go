package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
	UserDeleted UserStatus = "deleted"
)

// UserProfile holds optional profile data supplied by the client side.
type UserProfile struct {
	Name      string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty"`
	Email     string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty"`
	AvatarURL string `json:"avatar_url,omitempty" bson:"avatar_url,omitempty" validate:"omitempty,url"`
}

// Merge overlays non-empty fields of other onto the profile.
func (p *UserProfile) Merge(other UserProfile) {
	if other.Name != "" {
		p.Name = other.Name
	}
	if other.Email != "" {
		p.Email = other.Email
	}
	if other.Phone != "" {
		p.Phone = other.Phone
	}
	if other.AvatarURL != "" {
		p.AvatarURL = other.AvatarURL
	}
}

// User is a durable end-user identity, keyed by an externally supplied
// member_id unique within org+env. Users are soft deleted only.
type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MemberID string             `json:"member_id" bson:"member_id"`
	OrgID    string             `json:"org_id" bson:"org_id"`
	EnvType  string             `json:"env_type" bson:"env_type"`

	Profile      UserProfile       `json:"profile" bson:"profile"`
	CustomFields map[string]string `json:"custom_fields" bson:"custom_fields"`
	Tags         []string          `json:"tags" bson:"tags"`

	TotalChats    int `json:"total_chats" bson:"total_chats"`
	TotalMessages int `json:"total_messages" bson:"total_messages"`

	Status UserStatus `json:"status" bson:"status"`

	FirstSeenAt time.Time `json:"first_seen_at" bson:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at" bson:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// TempUser is an anonymous, TTL-bound identity kept in Redis until the
// visitor either expires or is converted to a durable User.
type TempUser struct {
	SessionID string `json:"session_id"`
	OrgID     string `json:"org_id"`
	EnvType   string `json:"env_type"`

	Profile UserProfile `json:"profile"`
	ChatIDs []string    `json:"chat_ids"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
