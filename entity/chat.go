package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatStatus string

const (
	ChatWaiting  ChatStatus = "waiting"
	ChatActive   ChatStatus = "active"
	ChatResolved ChatStatus = "resolved"
	ChatClosed   ChatStatus = "closed"
)

// LastMessage is the denormalized preview stored on a chat so the
// conversation list renders without touching the messages collection.
type LastMessage struct {
	SenderType  SenderType  `json:"sender_type" bson:"sender_type"`
	Content     string      `json:"content" bson:"content"`
	MessageType MessageType `json:"message_type" bson:"message_type"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

// Chat represents one user-agent conversation within an organization
// and environment. Closed is terminal: no status change or message is
// accepted afterwards.
type Chat struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID   string             `json:"org_id" bson:"org_id"`
	EnvType string             `json:"env_type" bson:"env_type"`

	UserID          string `json:"user_id" bson:"user_id"`
	MemberID        string `json:"member_id" bson:"member_id"`
	AssignedAgentID string `json:"assigned_agent_id,omitempty" bson:"assigned_agent_id,omitempty"`

	Status ChatStatus `json:"status" bson:"status"`

	MessageCount     int `json:"message_count" bson:"message_count"`
	UnreadCountUser  int `json:"unread_count_user" bson:"unread_count_user"`
	UnreadCountAgent int `json:"unread_count_agent" bson:"unread_count_agent"`

	LastMessage *LastMessage `json:"last_message,omitempty" bson:"last_message,omitempty"`

	Tags     []string          `json:"tags" bson:"tags"`
	Metadata map[string]string `json:"metadata" bson:"metadata"`

	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty" bson:"first_response_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}

func (c *Chat) IsClosed() bool {
	return c.Status == ChatClosed
}

// ChatFilter narrows chat listing. Zero values mean "no filter".
type ChatFilter struct {
	Status  ChatStatus
	AgentID string
	UserID  string
}

// ChatStatistics aggregates per-tenant chat counts and latencies.
type ChatStatistics struct {
	TotalChats               int      `json:"total_chats"`
	WaitingChats             int      `json:"waiting_chats"`
	ActiveChats              int      `json:"active_chats"`
	ResolvedChats            int      `json:"resolved_chats"`
	ClosedChats              int      `json:"closed_chats"`
	AvgResponseTimeSeconds   *float64 `json:"avg_response_time_seconds"`
	AvgResolutionTimeSeconds *float64 `json:"avg_resolution_time_seconds"`
}
