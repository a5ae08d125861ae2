package repositories

import (
	"gorm.io/gorm"

	"github.com/learninverse/server/internal/models"
)

// GroupRepository persists chat groups and their member lists.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(group *models.ChatGroup) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) GetByID(id string) (*models.ChatGroup, error) {
	var group models.ChatGroup
	if err := r.db.Preload("Members").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) GetByInviteCode(code string) (*models.ChatGroup, error) {
	var group models.ChatGroup
	err := r.db.Preload("Members").
		First(&group, "invite_code = ? AND is_active = true", code).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) Update(group *models.ChatGroup) error {
	return r.db.Save(group).Error
}

func (r *GroupRepository) SetLastMessage(groupID string, messageID int64) error {
	return r.db.Model(&models.ChatGroup{}).
		Where("id = ?", groupID).
		Update("last_message_id", messageID).Error
}

// ListForUser returns the active groups the user is a member of.
func (r *GroupRepository) ListForUser(userID string, limit, offset int) ([]models.ChatGroup, int64, error) {
	var groups []models.ChatGroup
	var total int64

	base := r.db.Model(&models.ChatGroup{}).
		Joins("JOIN group_members ON group_members.group_id = chat_groups.id").
		Where("group_members.user_id = ? AND group_members.deleted_at IS NULL", userID).
		Where("chat_groups.is_active = true")

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base.Preload("Members").
		Order("chat_groups.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&groups).Error
	return groups, total, err
}

func (r *GroupRepository) AddMember(member *models.GroupMember) error {
	return r.db.Create(member).Error
}

func (r *GroupRepository) GetMember(groupID, userID string) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GroupRepository) RemoveMember(groupID, userID string) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{}).Error
}

func (r *GroupRepository) UpdateMember(member *models.GroupMember) error {
	return r.db.Save(member).Error
}

func (r *GroupRepository) ListMembers(groupID string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}
