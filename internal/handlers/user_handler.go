package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/middlewares"
	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	dto, err := h.userService.GetProfile(middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// UpdateMe handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.userService.UpdateProfile(middlewares.UserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// GetUser handles GET /api/v1/users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	dto, err := h.userService.GetProfile(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// List handles GET /api/v1/admin/users.
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	users, total, err := h.userService.ListUsers(middlewares.UserRole(c), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	okPage(c, users, total)
}

// Deactivate handles POST /api/v1/admin/users/:id/deactivate.
func (h *UserHandler) Deactivate(c *gin.Context) {
	targetID := c.Param("id")
	err := h.userService.DeactivateUser(c.Request.Context(), middlewares.UserRole(c), targetID)
	if err != nil {
		fail(c, err)
		return
	}
	h.logger.Info("account deactivated",
		zap.String("target", targetID),
		zap.String("actor", middlewares.UserID(c)))
	ok(c, nil)
}

// Activate handles POST /api/v1/admin/users/:id/activate.
func (h *UserHandler) Activate(c *gin.Context) {
	if err := h.userService.ActivateUser(middlewares.UserRole(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// ChangeRole handles PUT /api/v1/admin/users/:id/role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req struct {
		Role rbac.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.userService.ChangeRole(middlewares.UserRole(c), c.Param("id"), req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
