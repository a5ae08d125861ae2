package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learninverse/server/internal/models"
	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/utils"
)

// inviteRetries bounds invite code regeneration on unique-index collisions.
const inviteRetries = 5

// GroupService handles group lifecycle, membership and per-member
// permission management.
type GroupService struct {
	groupStore GroupStore
	userStore  UserStore
}

func NewGroupService(groupStore GroupStore, userStore UserStore) *GroupService {
	return &GroupService{
		groupStore: groupStore,
		userStore:  userStore,
	}
}

type CreateGroupRequest struct {
	Name         string           `json:"name" binding:"required"`
	Description  string           `json:"description"`
	Type         models.GroupType `json:"type"`
	AcademicYear string           `json:"academic_year"`
	Course       string           `json:"course"`
	Subjects     []string         `json:"subjects"`
}

type UpdateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	AvatarURL   string   `json:"avatar_url"`
	Course      string   `json:"course"`
	Subjects    []string `json:"subjects"`
}

type GroupDTO struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	AvatarURL     string           `json:"avatar_url,omitempty"`
	Type          models.GroupType `json:"type"`
	AcademicYear  string           `json:"academic_year,omitempty"`
	Course        string           `json:"course,omitempty"`
	Subjects      []string         `json:"subjects,omitempty"`
	CreatedBy     string           `json:"created_by"`
	InviteCode    string           `json:"invite_code"`
	LastMessageID int64            `json:"last_message_id"`
	MemberCount   int              `json:"member_count"`
	CreatedAt     time.Time        `json:"created_at"`
}

type GroupMemberDTO struct {
	UserID      string                 `json:"user_id"`
	Name        string                 `json:"name"`
	AvatarURL   string                 `json:"avatar_url,omitempty"`
	Role        rbac.GroupRole         `json:"role"`
	Permissions []rbac.GroupPermission `json:"permissions"`
	JoinedAt    time.Time              `json:"joined_at"`
}

func toGroupDTO(g *models.ChatGroup) *GroupDTO {
	return &GroupDTO{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		AvatarURL:     g.AvatarURL,
		Type:          g.Type,
		AcademicYear:  g.AcademicYear,
		Course:        g.Course,
		Subjects:      g.Subjects,
		CreatedBy:     g.CreatedBy,
		InviteCode:    g.InviteCode,
		LastMessageID: g.LastMessageID,
		MemberCount:   len(g.Members),
		CreatedAt:     g.CreatedAt,
	}
}

func toMemberDTO(m *models.GroupMember) *GroupMemberDTO {
	dto := &GroupMemberDTO{
		UserID:      m.UserID,
		Role:        m.Role,
		Permissions: m.Permissions,
		JoinedAt:    m.JoinedAt,
	}
	if m.User != nil {
		dto.Name = m.User.Name
		dto.AvatarURL = m.User.AvatarURL
	}
	return dto
}

// CreateGroup creates a group and enrolls the creator as its sole admin
// with the full permission set. Invite codes are regenerated when the
// unique index reports a collision.
func (s *GroupService) CreateGroup(creatorID string, req *CreateGroupRequest) (*GroupDTO, error) {
	if !utils.ValidateGroupName(req.Name) {
		return nil, ErrInvalidInput
	}

	groupType := req.Type
	if groupType == "" {
		groupType = models.GroupTypeGeneral
	}
	switch groupType {
	case models.GroupTypeClass, models.GroupTypeStudyGroup, models.GroupTypeProject, models.GroupTypeGeneral:
	default:
		return nil, ErrInvalidInput
	}

	group := &models.ChatGroup{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Type:         groupType,
		AcademicYear: req.AcademicYear,
		Course:       req.Course,
		Subjects:     req.Subjects,
		CreatedBy:    creatorID,
		IsActive:     true,
	}

	var err error
	for attempt := 0; attempt < inviteRetries; attempt++ {
		group.InviteCode = utils.GenerateInviteCode()
		err = s.groupStore.Create(group)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	member := &models.GroupMember{
		GroupID:     group.ID,
		UserID:      creatorID,
		Role:        rbac.GroupRoleAdmin,
		JoinedAt:    time.Now(),
		Permissions: rbac.FullPermissions(),
	}
	if err := s.groupStore.AddMember(member); err != nil {
		return nil, err
	}
	group.Members = []models.GroupMember{*member}

	return toGroupDTO(group), nil
}

// JoinGroup enrolls a user via invite code. New members get the member
// role with the default send permissions. Joining twice is a conflict.
func (s *GroupService) JoinGroup(userID, inviteCode string) (*GroupDTO, error) {
	inviteCode = strings.ToUpper(strings.TrimSpace(inviteCode))
	if !utils.ValidInviteCode(inviteCode) {
		return nil, ErrInviteNotFound
	}

	group, err := s.groupStore.GetByInviteCode(inviteCode)
	if err != nil {
		return nil, ErrInviteNotFound
	}

	if _, err := s.groupStore.GetMember(group.ID, userID); err == nil {
		return nil, ErrAlreadyMember
	}

	member := &models.GroupMember{
		GroupID:     group.ID,
		UserID:      userID,
		Role:        rbac.GroupRoleMember,
		JoinedAt:    time.Now(),
		Permissions: rbac.DefaultMemberPermissions(),
	}
	if err := s.groupStore.AddMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	return s.GetGroup(group.ID, userID)
}

// LeaveGroup removes the caller's own membership. The creator cannot
// leave their group; they own it.
func (s *GroupService) LeaveGroup(userID, groupID string) error {
	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.CreatedBy == userID {
		return ErrCreatorCannotLeave
	}
	if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
		return ErrNotMember
	}
	return s.groupStore.RemoveMember(groupID, userID)
}

// GetGroup returns group details. Restricted to members.
func (s *GroupService) GetGroup(groupID, userID string) (*GroupDTO, error) {
	if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
		return nil, ErrNotMember
	}
	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	return toGroupDTO(group), nil
}

// ListUserGroups returns the caller's groups.
func (s *GroupService) ListUserGroups(userID string, page, pageSize int) ([]GroupDTO, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	groups, total, err := s.groupStore.ListForUser(userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]GroupDTO, 0, len(groups))
	for i := range groups {
		dtos = append(dtos, *toGroupDTO(&groups[i]))
	}
	return dtos, total, nil
}

// ListMembers returns the member roster. Restricted to members.
func (s *GroupService) ListMembers(groupID, userID string) ([]GroupMemberDTO, error) {
	if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
		return nil, ErrNotMember
	}

	members, err := s.groupStore.ListMembers(groupID)
	if err != nil {
		return nil, err
	}

	dtos := make([]GroupMemberDTO, 0, len(members))
	for i := range members {
		dtos = append(dtos, *toMemberDTO(&members[i]))
	}
	return dtos, nil
}

// UpdateGroupInfo edits group metadata. Requires the edit_group_info
// permission.
func (s *GroupService) UpdateGroupInfo(actorID, groupID string, req *UpdateGroupRequest) (*GroupDTO, error) {
	member, err := s.groupStore.GetMember(groupID, actorID)
	if err != nil {
		return nil, ErrNotMember
	}
	if !member.Can(rbac.PermEditGroupInfo) {
		return nil, ErrPermissionDenied
	}

	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}

	if req.Name != "" {
		if !utils.ValidateGroupName(req.Name) {
			return nil, ErrInvalidInput
		}
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.AvatarURL != "" {
		group.AvatarURL = req.AvatarURL
	}
	if req.Course != "" {
		group.Course = req.Course
	}
	if req.Subjects != nil {
		group.Subjects = req.Subjects
	}

	if err := s.groupStore.Update(group); err != nil {
		return nil, err
	}
	return toGroupDTO(group), nil
}

// AddMember adds a user directly, bypassing the invite code. Requires
// the add_members permission.
func (s *GroupService) AddMember(actorID, groupID, userID string) error {
	actor, err := s.groupStore.GetMember(groupID, actorID)
	if err != nil {
		return ErrNotMember
	}
	if !actor.Can(rbac.PermAddMembers) {
		return ErrPermissionDenied
	}
	if _, err := s.userStore.GetByID(userID); err != nil {
		return ErrUserNotFound
	}
	if _, err := s.groupStore.GetMember(groupID, userID); err == nil {
		return ErrAlreadyMember
	}

	member := &models.GroupMember{
		GroupID:     groupID,
		UserID:      userID,
		Role:        rbac.GroupRoleMember,
		JoinedAt:    time.Now(),
		Permissions: rbac.DefaultMemberPermissions(),
	}
	if err := s.groupStore.AddMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// RemoveMember removes another member. Requires the remove_members
// permission; the creator cannot be removed.
func (s *GroupService) RemoveMember(actorID, groupID, userID string) error {
	actor, err := s.groupStore.GetMember(groupID, actorID)
	if err != nil {
		return ErrNotMember
	}
	if !actor.Can(rbac.PermRemoveMembers) {
		return ErrPermissionDenied
	}

	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.CreatedBy == userID {
		return ErrPermissionDenied
	}
	if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
		return ErrNotMember
	}
	return s.groupStore.RemoveMember(groupID, userID)
}

// UpdateMemberRole changes a member's group role. Requires the
// manage_permissions permission. Promotion to admin seeds the full
// permission set; demotion to member resets to the defaults.
func (s *GroupService) UpdateMemberRole(actorID, groupID, userID string, newRole rbac.GroupRole) error {
	actor, err := s.groupStore.GetMember(groupID, actorID)
	if err != nil {
		return ErrNotMember
	}
	if !actor.Can(rbac.PermManagePermissions) {
		return ErrPermissionDenied
	}

	switch newRole {
	case rbac.GroupRoleAdmin, rbac.GroupRoleModerator, rbac.GroupRoleMember:
	default:
		return ErrInvalidInput
	}

	member, err := s.groupStore.GetMember(groupID, userID)
	if err != nil {
		return ErrNotMember
	}

	member.Role = newRole
	switch newRole {
	case rbac.GroupRoleAdmin:
		member.Permissions = rbac.FullPermissions()
	case rbac.GroupRoleMember:
		member.Permissions = rbac.DefaultMemberPermissions()
	}
	return s.groupStore.UpdateMember(member)
}

// UpdateMemberPermissions replaces a member's permission set. Requires
// the manage_permissions permission.
func (s *GroupService) UpdateMemberPermissions(actorID, groupID, userID string, perms []rbac.GroupPermission) error {
	actor, err := s.groupStore.GetMember(groupID, actorID)
	if err != nil {
		return ErrNotMember
	}
	if !actor.Can(rbac.PermManagePermissions) {
		return ErrPermissionDenied
	}

	full := rbac.FullPermissions()
	for _, p := range perms {
		if !rbac.HasPermission(full, p) {
			return ErrInvalidInput
		}
	}

	member, err := s.groupStore.GetMember(groupID, userID)
	if err != nil {
		return ErrNotMember
	}
	member.Permissions = perms
	return s.groupStore.UpdateMember(member)
}
