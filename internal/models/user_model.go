package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/learninverse/server/internal/rbac"
)

// User is a platform account. Accounts are deactivated, never hard-deleted.
type User struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null" json:"name"`
	Role         rbac.Role  `gorm:"not null;default:student" json:"role"` // student, teacher, admin, super_admin
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Department   string     `json:"department,omitempty"`
	StudentID    string     `json:"student_id,omitempty"`
	TeacherID    string     `json:"teacher_id,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
