package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/learninverse/server/internal/models"
	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/session"
	"github.com/learninverse/server/internal/utils"
	"github.com/learninverse/server/middleware/jwt"
)

// AuthService handles signup, login and logout.
type AuthService struct {
	userStore UserStore
	tokens    *jwt.TokenManager
	sessions  *session.Store
}

func NewAuthService(userStore UserStore, tokens *jwt.TokenManager, sessions *session.Store) *AuthService {
	return &AuthService{
		userStore: userStore,
		tokens:    tokens,
		sessions:  sessions,
	}
}

type RegisterRequest struct {
	Email      string    `json:"email" binding:"required"`
	Password   string    `json:"password" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Role       rbac.Role `json:"role"`
	Department string    `json:"department"`
	StudentID  string    `json:"student_id"`
	TeacherID  string    `json:"teacher_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}

type UserDTO struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       rbac.Role  `json:"role"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	Department string     `json:"department,omitempty"`
	StudentID  string     `json:"student_id,omitempty"`
	TeacherID  string     `json:"teacher_id,omitempty"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func toUserDTO(u *models.User) *UserDTO {
	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		AvatarURL:  u.AvatarURL,
		Department: u.Department,
		StudentID:  u.StudentID,
		TeacherID:  u.TeacherID,
		IsActive:   u.IsActive,
		LastLogin:  u.LastLogin,
	}
}

// Register creates a new account. Self-signup is limited to the student
// and teacher roles; admin accounts are provisioned by an admin.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if !utils.ValidateEmail(req.Email) {
		return nil, ErrInvalidInput
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, ErrInvalidInput
	}
	if !utils.ValidateName(req.Name) {
		return nil, ErrInvalidInput
	}

	role := req.Role
	if role == "" {
		role = rbac.RoleStudent
	}
	if role != rbac.RoleStudent && role != rbac.RoleTeacher {
		return nil, ErrInvalidInput
	}

	taken, err := s.userStore.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		Department:   req.Department,
		StudentID:    req.StudentID,
		TeacherID:    req.TeacherID,
		IsActive:     true,
	}
	if err := s.userStore.Create(user); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Login verifies credentials and opens a session. Deactivated accounts
// cannot log in.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userStore.GetByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	if err := s.userStore.UpdateLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return s.issueSession(ctx, user)
}

// Logout removes the user's session snapshot.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.sessions.Remove(ctx, userID)
}

// RefreshToken issues a new token from a still-valid one.
func (s *AuthService) RefreshToken(tokenString string) (string, error) {
	return s.tokens.RefreshToken(tokenString)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	err = s.sessions.Put(ctx, &session.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		LoginAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: toUserDTO(user)}, nil
}
