package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/learninverse/server/internal/rbac"
)

// PermissionSet is stored as a jsonb array column.
type PermissionSet []rbac.GroupPermission

// GroupMember is one user's membership in one group. A user holds at most
// one live membership per group; the unique index is partial so a
// soft-deleted row left by LeaveGroup does not block a later rejoin.
// Permissions are an explicit set: administrative actions may grant or
// revoke flags independent of the role label.
type GroupMember struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	GroupID     string         `gorm:"type:uuid;not null;uniqueIndex:idx_group_user,where:deleted_at IS NULL" json:"group_id"`
	UserID      string         `gorm:"type:uuid;not null;uniqueIndex:idx_group_user,where:deleted_at IS NULL" json:"user_id"`
	Role        rbac.GroupRole `gorm:"not null;default:member" json:"role"` // admin, moderator, member
	JoinedAt    time.Time      `json:"joined_at"`
	Permissions PermissionSet  `gorm:"serializer:json;type:jsonb" json:"permissions"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Group *ChatGroup `gorm:"foreignKey:GroupID" json:"-"`
	User  *User      `gorm:"foreignKey:UserID" json:"-"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// Can reports whether this member holds the given permission flag.
func (m *GroupMember) Can(p rbac.GroupPermission) bool {
	return rbac.HasPermission(m.Permissions, p)
}
