package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeFile     MessageType = "file"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
)

// MessageRead records one user's read receipt.
type MessageRead struct {
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// MessageReaction records one user's emoji reaction.
type MessageReaction struct {
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadSet and ReactionList are stored as jsonb columns.
type (
	ReadSet      []MessageRead
	ReactionList []MessageReaction
)

// ChatMessage is a single message in a group or a private chat. Exactly one
// of GroupID / RecipientID is set (group message XOR direct message); the
// service layer enforces the invariant before persisting. Messages are never
// physically removed: delete flips IsDeleted.
type ChatMessage struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	SenderID     string `gorm:"type:uuid;not null;index" json:"sender_id"`
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`

	GroupID     string `gorm:"type:uuid;index" json:"group_id,omitempty"`     // set for group messages
	RecipientID string `gorm:"type:uuid;index" json:"recipient_id,omitempty"` // set for direct messages

	Content  string      `gorm:"not null" json:"content"`
	Type     MessageType `gorm:"not null;default:text" json:"type"`
	FileURL  string      `json:"file_url,omitempty"`
	FileName string      `json:"file_name,omitempty"`
	FileSize int64       `json:"file_size,omitempty"`

	SequenceID int64      `gorm:"default:0" json:"sequence_id"` // per-group ordering, Redis INCR
	Timestamp  time.Time  `gorm:"not null;index" json:"timestamp"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	ReplyTo    int64      `gorm:"default:0" json:"reply_to,omitempty"`
	IsPinned   bool       `gorm:"default:false" json:"is_pinned"`
	IsDeleted  bool       `gorm:"default:false" json:"is_deleted"`

	ReadBy    ReadSet      `gorm:"serializer:json;type:jsonb" json:"read_by"`
	Reactions ReactionList `gorm:"serializer:json;type:jsonb" json:"reactions"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Sender *User `gorm:"foreignKey:SenderID" json:"-"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ReadByUser reports whether userID already has a read receipt.
func (m *ChatMessage) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
