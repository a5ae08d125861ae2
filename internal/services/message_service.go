package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/models"
	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/utils/snowflake"
)

const maxContentLength = 5000

// MessageService handles message lifecycle for group chats and direct
// messages: sending, editing, delete-flagging, pinning, read receipts,
// reactions, unread counts and search.
type MessageService struct {
	messageStore MessageStore
	groupStore   GroupStore
	chatStore    PrivateChatStore
	userStore    UserStore
	redisClient  *redis.Client
	ids          *snowflake.Generator
	sink         MessageSink
	logger       *zap.Logger
}

func NewMessageService(
	messageStore MessageStore,
	groupStore GroupStore,
	chatStore PrivateChatStore,
	userStore UserStore,
	redisClient *redis.Client,
	ids *snowflake.Generator,
	sink MessageSink,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageStore: messageStore,
		groupStore:   groupStore,
		chatStore:    chatStore,
		userStore:    userStore,
		redisClient:  redisClient,
		ids:          ids,
		sink:         sink,
		logger:       logger,
	}
}

type SendMessageRequest struct {
	GroupID     string             `json:"group_id"`
	RecipientID string             `json:"recipient_id"`
	Content     string             `json:"content" binding:"required"`
	Type        models.MessageType `json:"type"`
	FileURL     string             `json:"file_url"`
	FileName    string             `json:"file_name"`
	FileSize    int64              `json:"file_size"`
	ReplyTo     int64              `json:"reply_to"`
}

type MessageDTO struct {
	ID           int64               `json:"id"`
	SenderID     string              `json:"sender_id"`
	SenderName   string              `json:"sender_name"`
	SenderAvatar string              `json:"sender_avatar,omitempty"`
	GroupID      string              `json:"group_id,omitempty"`
	RecipientID  string              `json:"recipient_id,omitempty"`
	Content      string              `json:"content"`
	Type         models.MessageType  `json:"type"`
	FileURL      string              `json:"file_url,omitempty"`
	FileName     string              `json:"file_name,omitempty"`
	FileSize     int64               `json:"file_size,omitempty"`
	SequenceID   int64               `json:"sequence_id"`
	Timestamp    time.Time           `json:"timestamp"`
	EditedAt     *time.Time          `json:"edited_at,omitempty"`
	ReplyTo      int64               `json:"reply_to,omitempty"`
	IsPinned     bool                `json:"is_pinned"`
	ReadBy       models.ReadSet      `json:"read_by"`
	Reactions    models.ReactionList `json:"reactions"`
}

type PrivateChatDTO struct {
	ID            string    `json:"id"`
	OtherUserID   string    `json:"other_user_id"`
	LastMessageID int64     `json:"last_message_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMessageDTO(m *models.ChatMessage) *MessageDTO {
	return &MessageDTO{
		ID:           m.ID,
		SenderID:     m.SenderID,
		SenderName:   m.SenderName,
		SenderAvatar: m.SenderAvatar,
		GroupID:      m.GroupID,
		RecipientID:  m.RecipientID,
		Content:      m.Content,
		Type:         m.Type,
		FileURL:      m.FileURL,
		FileName:     m.FileName,
		FileSize:     m.FileSize,
		SequenceID:   m.SequenceID,
		Timestamp:    m.Timestamp,
		EditedAt:     m.EditedAt,
		ReplyTo:      m.ReplyTo,
		IsPinned:     m.IsPinned,
		ReadBy:       m.ReadBy,
		Reactions:    m.Reactions,
	}
}

func mediaType(t models.MessageType) bool {
	switch t {
	case models.MessageTypeFile, models.MessageTypeImage, models.MessageTypeVideo,
		models.MessageTypeAudio, models.MessageTypeDocument:
		return true
	}
	return false
}

// SendMessage persists a new message and hands it to the delivery sink.
// Exactly one of GroupID / RecipientID must be set. Group sends require
// membership plus the send_messages permission (send_media for file
// types). The sender is seeded into the read set.
func (s *MessageService) SendMessage(ctx context.Context, senderID string, req *SendMessageRequest) (*MessageDTO, error) {
	if len(req.Content) == 0 || len(req.Content) > maxContentLength {
		return nil, ErrInvalidInput
	}
	if (req.GroupID == "") == (req.RecipientID == "") {
		return nil, ErrBadTarget
	}

	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	sender, err := s.userStore.GetByID(senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	message := &models.ChatMessage{
		SenderID:     senderID,
		SenderName:   sender.Name,
		SenderAvatar: sender.AvatarURL,
		GroupID:      req.GroupID,
		RecipientID:  req.RecipientID,
		Content:      req.Content,
		Type:         msgType,
		FileURL:      req.FileURL,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		Timestamp:    now,
		ReplyTo:      req.ReplyTo,
		ReadBy:       models.ReadSet{{UserID: senderID, ReadAt: now}},
		Reactions:    models.ReactionList{},
	}

	if req.GroupID != "" {
		member, err := s.groupStore.GetMember(req.GroupID, senderID)
		if err != nil {
			return nil, ErrNotMember
		}
		needed := rbac.PermSendMessages
		if mediaType(msgType) {
			needed = rbac.PermSendMedia
		}
		if !member.Can(needed) {
			return nil, ErrPermissionDenied
		}

		seq, err := s.nextSequence(ctx, fmt.Sprintf("group:%s:seq", req.GroupID))
		if err != nil {
			return nil, err
		}
		message.SequenceID = seq
	} else {
		recipient, err := s.userStore.GetByID(req.RecipientID)
		if err != nil {
			return nil, ErrUserNotFound
		}
		if !recipient.IsActive {
			return nil, ErrUserNotFound
		}

		chat, err := s.ensurePrivateChat(senderID, req.RecipientID)
		if err != nil {
			return nil, err
		}

		seq, err := s.nextSequence(ctx, fmt.Sprintf("chat:%s:seq", chat.ID))
		if err != nil {
			return nil, err
		}
		message.SequenceID = seq
	}

	id, err := s.ids.NextID()
	if err != nil {
		return nil, err
	}
	message.ID = id

	if err := s.messageStore.Create(message); err != nil {
		return nil, err
	}

	if req.GroupID != "" {
		if err := s.groupStore.SetLastMessage(req.GroupID, message.ID); err != nil {
			return nil, err
		}
	} else {
		chat, err := s.chatStore.GetByPair(senderID, req.RecipientID)
		if err == nil {
			if err := s.chatStore.SetLastMessage(chat.ID, message.ID); err != nil {
				return nil, err
			}
		}
	}

	if s.sink != nil {
		if err := s.sink.Deliver(ctx, message); err != nil {
			s.logger.Warn("message delivery failed, stored only",
				zap.Int64("message_id", message.ID),
				zap.Error(err))
		}
	}

	return toMessageDTO(message), nil
}

func (s *MessageService) nextSequence(ctx context.Context, key string) (int64, error) {
	return s.redisClient.Incr(ctx, key).Result()
}

func (s *MessageService) ensurePrivateChat(userA, userB string) (*models.PrivateChat, error) {
	chat, err := s.chatStore.GetByPair(userA, userB)
	if err == nil {
		return chat, nil
	}

	a, b := models.NormalizePair(userA, userB)
	chat = &models.PrivateChat{
		ID:           uuid.NewString(),
		ParticipantA: a,
		ParticipantB: b,
		IsActive:     true,
	}
	if err := s.chatStore.Create(chat); err != nil {
		// lost a race with the peer; the pair index guarantees one chat
		if existing, getErr := s.chatStore.GetByPair(userA, userB); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return chat, nil
}

// StartPrivateChat opens (or returns the existing) direct chat with
// another user.
func (s *MessageService) StartPrivateChat(userID, otherID string) (*PrivateChatDTO, error) {
	if userID == otherID || otherID == "" {
		return nil, ErrInvalidInput
	}
	other, err := s.userStore.GetByID(otherID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !other.IsActive {
		return nil, ErrUserNotFound
	}

	chat, err := s.ensurePrivateChat(userID, otherID)
	if err != nil {
		return nil, err
	}
	return &PrivateChatDTO{
		ID:            chat.ID,
		OtherUserID:   chat.OtherParticipant(userID),
		LastMessageID: chat.LastMessageID,
		CreatedAt:     chat.CreatedAt,
	}, nil
}

// ListPrivateChats returns the caller's active direct chats.
func (s *MessageService) ListPrivateChats(userID string) ([]PrivateChatDTO, error) {
	chats, err := s.chatStore.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]PrivateChatDTO, 0, len(chats))
	for i := range chats {
		dtos = append(dtos, PrivateChatDTO{
			ID:            chats[i].ID,
			OtherUserID:   chats[i].OtherParticipant(userID),
			LastMessageID: chats[i].LastMessageID,
			CreatedAt:     chats[i].CreatedAt,
		})
	}
	return dtos, nil
}

// GetGroupMessages returns a page of visible group messages in sequence
// order. Restricted to members; delete-flagged messages are filtered out
// by the store.
func (s *MessageService) GetGroupMessages(userID, groupID string, page, pageSize int) ([]MessageDTO, int64, error) {
	if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
		return nil, 0, ErrNotMember
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	messages, total, err := s.messageStore.ListByGroup(groupID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return toMessageDTOs(messages), total, nil
}

// GetDirectMessages returns a page of the conversation between the
// caller and another user.
func (s *MessageService) GetDirectMessages(userID, otherID string, page, pageSize int) ([]MessageDTO, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	messages, total, err := s.messageStore.ListBetween(userID, otherID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return toMessageDTOs(messages), total, nil
}

func toMessageDTOs(messages []models.ChatMessage) []MessageDTO {
	dtos := make([]MessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, *toMessageDTO(&messages[i]))
	}
	return dtos
}

// EditMessage replaces the content of the caller's own message and
// stamps EditedAt.
func (s *MessageService) EditMessage(userID string, messageID int64, content string) (*MessageDTO, error) {
	if len(content) == 0 || len(content) > maxContentLength {
		return nil, ErrInvalidInput
	}

	message, err := s.messageStore.GetByID(messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	if message.IsDeleted {
		return nil, ErrMessageNotFound
	}
	if message.SenderID != userID {
		return nil, ErrPermissionDenied
	}

	now := time.Now()
	message.Content = content
	message.EditedAt = &now
	if err := s.messageStore.Update(message); err != nil {
		return nil, err
	}
	return toMessageDTO(message), nil
}

// DeleteMessage flags a message as deleted. The sender may always delete
// their own message; in groups, the delete_messages permission allows
// deleting others'. The row is kept.
func (s *MessageService) DeleteMessage(userID string, messageID int64) error {
	message, err := s.messageStore.GetByID(messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if message.IsDeleted {
		return ErrMessageNotFound
	}

	if message.SenderID != userID {
		if message.GroupID == "" {
			return ErrPermissionDenied
		}
		member, err := s.groupStore.GetMember(message.GroupID, userID)
		if err != nil {
			return ErrNotMember
		}
		if !member.Can(rbac.PermDeleteMessages) {
			return ErrPermissionDenied
		}
	}

	message.IsDeleted = true
	return s.messageStore.Update(message)
}

// PinMessage pins a group message. Requires the pin_messages permission.
func (s *MessageService) PinMessage(userID string, messageID int64) error {
	return s.setPinned(userID, messageID, true)
}

// UnpinMessage clears the pin flag. Requires the pin_messages permission.
func (s *MessageService) UnpinMessage(userID string, messageID int64) error {
	return s.setPinned(userID, messageID, false)
}

func (s *MessageService) setPinned(userID string, messageID int64, pinned bool) error {
	message, err := s.messageStore.GetByID(messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if message.IsDeleted || message.GroupID == "" {
		return ErrMessageNotFound
	}

	member, err := s.groupStore.GetMember(message.GroupID, userID)
	if err != nil {
		return ErrNotMember
	}
	if !member.Can(rbac.PermPinMessages) {
		return ErrPermissionDenied
	}

	if message.IsPinned == pinned {
		return nil
	}
	message.IsPinned = pinned
	return s.messageStore.Update(message)
}

// MarkAsRead adds a read receipt for the caller. Marking twice is a
// no-op; existing receipts keep their original timestamp.
func (s *MessageService) MarkAsRead(userID string, messageID int64) error {
	message, err := s.messageStore.GetByID(messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if message.IsDeleted {
		return ErrMessageNotFound
	}
	if err := s.checkVisibility(message, userID); err != nil {
		return err
	}

	if message.ReadByUser(userID) {
		return nil
	}
	message.ReadBy = append(message.ReadBy, models.MessageRead{UserID: userID, ReadAt: time.Now()})
	return s.messageStore.Update(message)
}

// AddReaction records an emoji reaction. A user holds at most one
// reaction per emoji per message.
func (s *MessageService) AddReaction(userID string, messageID int64, emoji string) error {
	if emoji == "" {
		return ErrInvalidInput
	}
	message, err := s.messageStore.GetByID(messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if message.IsDeleted {
		return ErrMessageNotFound
	}
	if err := s.checkVisibility(message, userID); err != nil {
		return err
	}

	for _, r := range message.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return nil
		}
	}
	message.Reactions = append(message.Reactions, models.MessageReaction{
		UserID:    userID,
		Emoji:     emoji,
		Timestamp: time.Now(),
	})
	return s.messageStore.Update(message)
}

// RemoveReaction drops the caller's reaction for the given emoji.
func (s *MessageService) RemoveReaction(userID string, messageID int64, emoji string) error {
	message, err := s.messageStore.GetByID(messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if message.IsDeleted {
		return ErrMessageNotFound
	}

	kept := message.Reactions[:0]
	removed := false
	for _, r := range message.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return nil
	}
	message.Reactions = kept
	return s.messageStore.Update(message)
}

// GetUnreadCount counts messages without the caller's read receipt. With
// a group ID it counts within that group (members only); without one it
// counts direct messages addressed to the caller.
func (s *MessageService) GetUnreadCount(userID, groupID string) (int64, error) {
	if groupID != "" {
		if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
			return 0, ErrNotMember
		}
		return s.messageStore.CountUnreadGroup(groupID, userID)
	}
	return s.messageStore.CountUnreadDirect(userID)
}

// SearchMessages finds messages matching the query. With a group ID the
// search covers that group (members only); without one it covers the
// caller's direct messages.
func (s *MessageService) SearchMessages(userID, query, groupID string) ([]MessageDTO, error) {
	if query == "" {
		return nil, ErrInvalidInput
	}

	if groupID != "" {
		if _, err := s.groupStore.GetMember(groupID, userID); err != nil {
			return nil, ErrNotMember
		}
		messages, err := s.messageStore.Search(query, groupID)
		if err != nil {
			return nil, err
		}
		return toMessageDTOs(messages), nil
	}

	messages, err := s.messageStore.Search(query, "")
	if err != nil {
		return nil, err
	}
	visible := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.RecipientID == "" {
			continue
		}
		if m.SenderID == userID || m.RecipientID == userID {
			visible = append(visible, m)
		}
	}
	return toMessageDTOs(visible), nil
}

func (s *MessageService) checkVisibility(message *models.ChatMessage, userID string) error {
	if message.GroupID != "" {
		if _, err := s.groupStore.GetMember(message.GroupID, userID); err != nil {
			return ErrNotMember
		}
		return nil
	}
	if message.SenderID != userID && message.RecipientID != userID {
		return ErrPermissionDenied
	}
	return nil
}
