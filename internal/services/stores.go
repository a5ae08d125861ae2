package services

import (
	"context"
	"time"

	"github.com/learninverse/server/internal/models"
)

// Store interfaces abstract the persistence layer so services can be
// exercised against in-memory fakes. The gorm repositories in
// internal/repositories satisfy them.

type UserStore interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ExistsByEmail(email string) (bool, error)
	Update(user *models.User) error
	SetActive(id string, active bool) error
	UpdateLastLogin(id string, at time.Time) error
	List(limit, offset int) ([]models.User, int64, error)
}

type GroupStore interface {
	Create(group *models.ChatGroup) error
	GetByID(id string) (*models.ChatGroup, error)
	GetByInviteCode(code string) (*models.ChatGroup, error)
	Update(group *models.ChatGroup) error
	SetLastMessage(groupID string, messageID int64) error
	ListForUser(userID string, limit, offset int) ([]models.ChatGroup, int64, error)
	AddMember(member *models.GroupMember) error
	GetMember(groupID, userID string) (*models.GroupMember, error)
	RemoveMember(groupID, userID string) error
	UpdateMember(member *models.GroupMember) error
	ListMembers(groupID string) ([]models.GroupMember, error)
}

type MessageStore interface {
	Create(message *models.ChatMessage) error
	GetByID(id int64) (*models.ChatMessage, error)
	Update(message *models.ChatMessage) error
	ListByGroup(groupID string, limit, offset int) ([]models.ChatMessage, int64, error)
	ListBetween(userA, userB string, limit, offset int) ([]models.ChatMessage, int64, error)
	Search(query, groupID string) ([]models.ChatMessage, error)
	CountUnreadGroup(groupID, userID string) (int64, error)
	CountUnreadDirect(userID string) (int64, error)
}

type PrivateChatStore interface {
	Create(chat *models.PrivateChat) error
	GetByID(id string) (*models.PrivateChat, error)
	GetByPair(userA, userB string) (*models.PrivateChat, error)
	ListForUser(userID string) ([]models.PrivateChat, error)
	SetLastMessage(chatID string, messageID int64) error
}

// MessageSink receives persisted messages for fan-out delivery: the Kafka
// producer in normal operation, the websocket hub directly in degraded mode.
type MessageSink interface {
	Deliver(ctx context.Context, msg *models.ChatMessage) error
}
