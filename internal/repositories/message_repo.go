package repositories

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/learninverse/server/internal/models"
)

// MessageRepository persists chat messages. Deleted messages stay in the
// table with is_deleted set; queries exclude them unless asked otherwise.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) GetByID(id int64) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) Update(message *models.ChatMessage) error {
	return r.db.Save(message).Error
}

// ListByGroup returns a group's messages in send order.
func (r *MessageRepository) ListByGroup(groupID string, limit, offset int) ([]models.ChatMessage, int64, error) {
	var messages []models.ChatMessage
	var total int64

	base := r.db.Model(&models.ChatMessage{}).
		Where("group_id = ? AND is_deleted = false", groupID)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.Order("sequence_id ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, total, err
}

// ListBetween returns the direct messages exchanged between exactly the two
// users, in send order.
func (r *MessageRepository) ListBetween(userA, userB string, limit, offset int) ([]models.ChatMessage, int64, error) {
	var messages []models.ChatMessage
	var total int64

	base := r.db.Model(&models.ChatMessage{}).
		Where("is_deleted = false").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, total, err
}

// Search matches message content case-insensitively, optionally scoped to
// one group, in the collection's natural order.
func (r *MessageRepository) Search(query, groupID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage

	q := r.db.Where("is_deleted = false").
		Where("content ILIKE ?", "%"+query+"%")
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	}
	err := q.Order("id ASC").Find(&messages).Error
	return messages, err
}

// CountUnreadGroup counts a group's messages not yet read by the user,
// excluding the user's own.
func (r *MessageRepository) CountUnreadGroup(groupID, userID string) (int64, error) {
	probe, err := readProbe(userID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.Model(&models.ChatMessage{}).
		Where("group_id = ? AND is_deleted = false AND sender_id <> ?", groupID, userID).
		Where("NOT (read_by @> ?::jsonb)", probe).
		Count(&count).Error
	return count, err
}

// CountUnreadDirect counts direct messages addressed to the user not yet
// read by them.
func (r *MessageRepository) CountUnreadDirect(userID string) (int64, error) {
	probe, err := readProbe(userID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.Model(&models.ChatMessage{}).
		Where("recipient_id = ? AND is_deleted = false", userID).
		Where("NOT (read_by @> ?::jsonb)", probe).
		Count(&count).Error
	return count, err
}

// readProbe builds the jsonb containment probe matching a read receipt for
// the user regardless of its read_at value.
func readProbe(userID string) (string, error) {
	probe, err := json.Marshal([]map[string]string{{"user_id": userID}})
	if err != nil {
		return "", fmt.Errorf("failed to build read probe: %w", err)
	}
	return string(probe), nil
}
