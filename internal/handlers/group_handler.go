package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/middlewares"
	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/services"
)

type GroupHandler struct {
	groupService *services.GroupService
	logger       *zap.Logger
}

func NewGroupHandler(groupService *services.GroupService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// Create handles POST /api/v1/groups.
func (h *GroupHandler) Create(c *gin.Context) {
	var req services.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.groupService.CreateGroup(middlewares.UserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	h.logger.Info("group created",
		zap.String("group_id", dto.ID),
		zap.String("creator", dto.CreatedBy))
	ok(c, dto)
}

// Join handles POST /api/v1/groups/join.
func (h *GroupHandler) Join(c *gin.Context) {
	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.groupService.JoinGroup(middlewares.UserID(c), req.InviteCode)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// Leave handles POST /api/v1/groups/:id/leave.
func (h *GroupHandler) Leave(c *gin.Context) {
	if err := h.groupService.LeaveGroup(middlewares.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Get handles GET /api/v1/groups/:id.
func (h *GroupHandler) Get(c *gin.Context) {
	dto, err := h.groupService.GetGroup(c.Param("id"), middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// ListMine handles GET /api/v1/groups.
func (h *GroupHandler) ListMine(c *gin.Context) {
	page, pageSize := pageParams(c)
	groups, total, err := h.groupService.ListUserGroups(middlewares.UserID(c), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	okPage(c, groups, total)
}

// Members handles GET /api/v1/groups/:id/members.
func (h *GroupHandler) Members(c *gin.Context) {
	members, err := h.groupService.ListMembers(c.Param("id"), middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, members)
}

// Update handles PUT /api/v1/groups/:id.
func (h *GroupHandler) Update(c *gin.Context) {
	var req services.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.groupService.UpdateGroupInfo(middlewares.UserID(c), c.Param("id"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// AddMember handles POST /api/v1/groups/:id/members.
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.groupService.AddMember(middlewares.UserID(c), c.Param("id"), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// RemoveMember handles DELETE /api/v1/groups/:id/members/:userID.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	err := h.groupService.RemoveMember(middlewares.UserID(c), c.Param("id"), c.Param("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// UpdateMemberRole handles PUT /api/v1/groups/:id/members/:userID/role.
func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	var req struct {
		Role rbac.GroupRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.groupService.UpdateMemberRole(middlewares.UserID(c), c.Param("id"), c.Param("userID"), req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// UpdateMemberPermissions handles PUT /api/v1/groups/:id/members/:userID/permissions.
func (h *GroupHandler) UpdateMemberPermissions(c *gin.Context) {
	var req struct {
		Permissions []rbac.GroupPermission `json:"permissions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.groupService.UpdateMemberPermissions(middlewares.UserID(c), c.Param("id"), c.Param("userID"), req.Permissions)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
