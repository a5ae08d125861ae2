package services

import (
	"context"

	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/session"
	"github.com/learninverse/server/internal/utils"
)

// UserService handles profile access and the admin user management surface.
type UserService struct {
	userStore UserStore
	sessions  *session.Store
}

func NewUserService(userStore UserStore, sessions *session.Store) *UserService {
	return &UserService{
		userStore: userStore,
		sessions:  sessions,
	}
}

type UpdateProfileRequest struct {
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
	Department string `json:"department"`
}

// GetProfile returns a user's profile.
func (s *UserService) GetProfile(userID string) (*UserDTO, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return toUserDTO(user), nil
}

// UpdateProfile updates the caller's own profile fields.
func (s *UserService) UpdateProfile(userID string, req *UpdateProfileRequest) (*UserDTO, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.Name != "" {
		if !utils.ValidateName(req.Name) {
			return nil, ErrInvalidInput
		}
		user.Name = req.Name
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	if req.Department != "" {
		user.Department = req.Department
	}

	if err := s.userStore.Update(user); err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// ListUsers returns a page of accounts. Admin only.
func (s *UserService) ListUsers(actorRole rbac.Role, page, pageSize int) ([]UserDTO, int64, error) {
	if !rbac.HasRole(actorRole, rbac.RoleAdmin) {
		return nil, 0, ErrPermissionDenied
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := s.userStore.List(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, *toUserDTO(&users[i]))
	}
	return dtos, total, nil
}

// DeactivateUser disables an account and drops its session. Admin only.
// Accounts are never hard-deleted.
func (s *UserService) DeactivateUser(ctx context.Context, actorRole rbac.Role, userID string) error {
	if !rbac.HasRole(actorRole, rbac.RoleAdmin) {
		return ErrPermissionDenied
	}

	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if rbac.HasRole(user.Role, rbac.RoleAdmin) && !rbac.HasRole(actorRole, rbac.RoleSuperAdmin) {
		return ErrPermissionDenied
	}

	if err := s.userStore.SetActive(userID, false); err != nil {
		return err
	}
	return s.sessions.Remove(ctx, userID)
}

// ActivateUser re-enables a deactivated account. Admin only.
func (s *UserService) ActivateUser(actorRole rbac.Role, userID string) error {
	if !rbac.HasRole(actorRole, rbac.RoleAdmin) {
		return ErrPermissionDenied
	}
	if _, err := s.userStore.GetByID(userID); err != nil {
		return ErrUserNotFound
	}
	return s.userStore.SetActive(userID, true)
}

// ChangeRole assigns a new platform role. Super admin only.
func (s *UserService) ChangeRole(actorRole rbac.Role, userID string, newRole rbac.Role) error {
	if !rbac.HasRole(actorRole, rbac.RoleSuperAdmin) {
		return ErrPermissionDenied
	}
	if !rbac.Valid(newRole) {
		return ErrInvalidInput
	}

	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return ErrUserNotFound
	}
	user.Role = newRole
	return s.userStore.Update(user)
}
