package repositories

import (
	"gorm.io/gorm"

	"github.com/learninverse/server/internal/models"
)

// PrivateChatRepository persists two-participant chats. The pair columns
// are stored normalized, so lookups normalize before querying.
type PrivateChatRepository struct {
	db *gorm.DB
}

func NewPrivateChatRepository(db *gorm.DB) *PrivateChatRepository {
	return &PrivateChatRepository{db: db}
}

func (r *PrivateChatRepository) Create(chat *models.PrivateChat) error {
	return r.db.Create(chat).Error
}

func (r *PrivateChatRepository) GetByID(id string) (*models.PrivateChat, error) {
	var chat models.PrivateChat
	if err := r.db.First(&chat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *PrivateChatRepository) GetByPair(userA, userB string) (*models.PrivateChat, error) {
	a, b := models.NormalizePair(userA, userB)
	var chat models.PrivateChat
	err := r.db.First(&chat, "participant_a = ? AND participant_b = ?", a, b).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *PrivateChatRepository) ListForUser(userID string) ([]models.PrivateChat, error) {
	var chats []models.PrivateChat
	err := r.db.Where("participant_a = ? OR participant_b = ?", userID, userID).
		Where("is_active = true").
		Order("created_at DESC").
		Find(&chats).Error
	return chats, err
}

func (r *PrivateChatRepository) SetLastMessage(chatID string, messageID int64) error {
	return r.db.Model(&models.PrivateChat{}).
		Where("id = ?", chatID).
		Update("last_message_id", messageID).Error
}
