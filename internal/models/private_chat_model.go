package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// PrivateChat is a two-participant direct messaging thread. The participant
// pair is stored in normalized (lexicographic) order so the unique index on
// (participant_a, participant_b) guarantees one chat per unordered pair.
type PrivateChat struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	ParticipantA string `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair" json:"-"`
	ParticipantB string `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair" json:"-"`

	LastMessageID int64 `gorm:"default:0" json:"last_message_id"`
	IsActive      bool  `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PrivateChat) TableName() string {
	return "private_chats"
}

// NormalizePair orders two user IDs lexicographically.
func NormalizePair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

// Participants returns both participant IDs.
func (c *PrivateChat) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// OtherParticipant returns the peer of userID, or "" if userID is not a
// participant.
func (c *PrivateChat) OtherParticipant(userID string) string {
	switch userID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	default:
		return ""
	}
}

// HasParticipant reports whether userID takes part in this chat.
func (c *PrivateChat) HasParticipant(userID string) bool {
	return userID == c.ParticipantA || userID == c.ParticipantB
}
