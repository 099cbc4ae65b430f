package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderAgent  SenderType = "agent"
	SenderBot    SenderType = "bot"
	SenderSystem SenderType = "system"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Attachment describes a file or image referenced by a message.
type Attachment struct {
	FileName string `json:"file_name" bson:"file_name"`
	FileURL  string `json:"file_url" bson:"file_url"`
	FileType string `json:"file_type" bson:"file_type"`
	FileSize int64  `json:"file_size" bson:"file_size"`
}

// Message is one unit of conversation content. Messages are immutable
// after creation except for the read flags.
type Message struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChatID string             `json:"chat_id" bson:"chat_id"`
	OrgID  string             `json:"org_id" bson:"org_id"`

	SenderType SenderType `json:"sender_type" bson:"sender_type"`
	SenderID   string     `json:"sender_id" bson:"sender_id"`

	MessageType MessageType  `json:"message_type" bson:"message_type"`
	Content     string       `json:"content" bson:"content"`
	Attachments []Attachment `json:"attachments" bson:"attachments"`

	ReadByUser  bool `json:"read_by_user" bson:"read_by_user"`
	ReadByAgent bool `json:"read_by_agent" bson:"read_by_agent"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ReadBy reports whether the given party has read the message.
func (m *Message) ReadBy(reader SenderType) bool {
	if reader == SenderUser {
		return m.ReadByUser
	}
	return m.ReadByAgent
}
