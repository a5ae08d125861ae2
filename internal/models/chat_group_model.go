package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupType classifies a chat group.
type GroupType string

const (
	GroupTypeClass      GroupType = "class"
	GroupTypeStudyGroup GroupType = "study_group"
	GroupTypeProject    GroupType = "project"
	GroupTypeGeneral    GroupType = "general"
)

// StringList is stored as a jsonb array column.
type StringList []string

// ChatGroup is a multi-member chat room with academic metadata. The group
// owns its member list and its invite code; messages are referenced, not
// owned. Invite codes are unique across groups (enforced by the index).
type ChatGroup struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	Name         string     `gorm:"not null" json:"name"`
	Description  string     `json:"description,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Type         GroupType  `gorm:"not null;default:general" json:"type"` // class, study_group, project, general
	AcademicYear string     `json:"academic_year,omitempty"`
	Course       string     `json:"course,omitempty"`
	Subjects     StringList `gorm:"serializer:json;type:jsonb" json:"subjects,omitempty"`

	CreatedBy     string `gorm:"not null;index" json:"created_by"`
	InviteCode    string `gorm:"uniqueIndex;not null;size:10" json:"invite_code"`
	LastMessageID int64  `gorm:"default:0" json:"last_message_id"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`

	Creator *User         `gorm:"foreignKey:CreatedBy" json:"-"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ChatGroup) TableName() string {
	return "chat_groups"
}
