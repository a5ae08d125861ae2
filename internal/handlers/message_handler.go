package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/middlewares"
	"github.com/learninverse/server/internal/services"
)

type MessageHandler struct {
	messageService *services.MessageService
	logger         *zap.Logger
}

func NewMessageHandler(messageService *services.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		logger:         logger,
	}
}

func messageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return id, true
}

// Send handles POST /api/v1/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.messageService.SendMessage(c.Request.Context(), middlewares.UserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// GroupMessages handles GET /api/v1/groups/:id/messages.
func (h *MessageHandler) GroupMessages(c *gin.Context) {
	page, pageSize := pageParams(c)
	messages, total, err := h.messageService.GetGroupMessages(
		middlewares.UserID(c), c.Param("id"), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	okPage(c, messages, total)
}

// DirectMessages handles GET /api/v1/chats/with/:userID/messages.
func (h *MessageHandler) DirectMessages(c *gin.Context) {
	page, pageSize := pageParams(c)
	messages, total, err := h.messageService.GetDirectMessages(
		middlewares.UserID(c), c.Param("userID"), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	okPage(c, messages, total)
}

// Edit handles PUT /api/v1/messages/:id.
func (h *MessageHandler) Edit(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.messageService.EditMessage(middlewares.UserID(c), id, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// Delete handles DELETE /api/v1/messages/:id.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	if err := h.messageService.DeleteMessage(middlewares.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Pin handles POST /api/v1/messages/:id/pin.
func (h *MessageHandler) Pin(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	if err := h.messageService.PinMessage(middlewares.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Unpin handles DELETE /api/v1/messages/:id/pin.
func (h *MessageHandler) Unpin(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	if err := h.messageService.UnpinMessage(middlewares.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// MarkRead handles POST /api/v1/messages/:id/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	if err := h.messageService.MarkAsRead(middlewares.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// UnreadCount handles GET /api/v1/messages/unread. An optional group_id
// query narrows the count to one group.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.messageService.GetUnreadCount(middlewares.UserID(c), c.Query("group_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"unread": count})
}

// Search handles GET /api/v1/messages/search.
func (h *MessageHandler) Search(c *gin.Context) {
	messages, err := h.messageService.SearchMessages(
		middlewares.UserID(c), c.Query("q"), c.Query("group_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, messages)
}

// React handles POST /api/v1/messages/:id/reactions.
func (h *MessageHandler) React(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.messageService.AddReaction(middlewares.UserID(c), id, req.Emoji); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Unreact handles DELETE /api/v1/messages/:id/reactions/:emoji.
func (h *MessageHandler) Unreact(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	if err := h.messageService.RemoveReaction(middlewares.UserID(c), id, c.Param("emoji")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// StartChat handles POST /api/v1/chats.
func (h *MessageHandler) StartChat(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.messageService.StartPrivateChat(middlewares.UserID(c), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, dto)
}

// ListChats handles GET /api/v1/chats.
func (h *MessageHandler) ListChats(c *gin.Context) {
	chats, err := h.messageService.ListPrivateChats(middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, chats)
}
