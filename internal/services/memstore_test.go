package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/learninverse/server/internal/models"
)

// In-memory store fakes. They mirror the gorm repositories' behavior,
// including unique-index violations (gorm.ErrDuplicatedKey) and missing
// rows (gorm.ErrRecordNotFound).

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) Create(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) GetByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) ExistsByEmail(email string) (bool, error) {
	_, err := s.GetByEmail(email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (s *memUserStore) Update(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	return nil
}

func (s *memUserStore) UpdateLastLogin(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastLogin = &at
	return nil
}

func (s *memUserStore) List(limit, offset int) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type memGroupStore struct {
	mu      sync.Mutex
	groups  map[string]*models.ChatGroup
	members map[string][]*models.GroupMember // keyed by group ID
}

func newMemGroupStore() *memGroupStore {
	return &memGroupStore{
		groups:  make(map[string]*models.ChatGroup),
		members: make(map[string][]*models.GroupMember),
	}
}

func (s *memGroupStore) Create(group *models.ChatGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.InviteCode == group.InviteCode {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *group
	cp.CreatedAt = time.Now()
	s.groups[group.ID] = &cp
	group.CreatedAt = cp.CreatedAt
	return nil
}

func (s *memGroupStore) GetByID(id string) (*models.ChatGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	cp.Members = nil
	for _, m := range s.members[id] {
		if m.DeletedAt.Valid {
			continue
		}
		cp.Members = append(cp.Members, *m)
	}
	return &cp, nil
}

func (s *memGroupStore) GetByInviteCode(code string) (*models.ChatGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.InviteCode == code && g.IsActive {
			cp := *g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memGroupStore) Update(group *models.ChatGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *group
	s.groups[group.ID] = &cp
	return nil
}

func (s *memGroupStore) SetLastMessage(groupID string, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	g.LastMessageID = messageID
	return nil
}

func (s *memGroupStore) ListForUser(userID string, limit, offset int) ([]models.ChatGroup, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatGroup
	for id, g := range s.groups {
		for _, m := range s.members[id] {
			if m.UserID == userID && !m.DeletedAt.Valid {
				out = append(out, *g)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

// AddMember mirrors the partial unique index on group_members: only a
// live row for the same (group, user) pair collides, a soft-deleted
// tombstone left by RemoveMember does not.
func (s *memGroupStore) AddMember(member *models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[member.GroupID] {
		if m.UserID == member.UserID && !m.DeletedAt.Valid {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *member
	s.members[member.GroupID] = append(s.members[member.GroupID], &cp)
	return nil
}

func (s *memGroupStore) GetMember(groupID, userID string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[groupID] {
		if m.UserID == userID && !m.DeletedAt.Valid {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// RemoveMember soft-deletes, as the gorm repository does: the row stays
// behind as a tombstone.
func (s *memGroupStore) RemoveMember(groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[groupID] {
		if m.UserID == userID && !m.DeletedAt.Valid {
			m.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memGroupStore) UpdateMember(member *models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members[member.GroupID] {
		if m.UserID == member.UserID && !m.DeletedAt.Valid {
			cp := *member
			s.members[member.GroupID][i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memGroupStore) ListMembers(groupID string) ([]models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GroupMember
	for _, m := range s.members[groupID] {
		if m.DeletedAt.Valid {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

type memMessageStore struct {
	mu       sync.Mutex
	messages map[int64]*models.ChatMessage
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{messages: make(map[int64]*models.ChatMessage)}
}

func (s *memMessageStore) Create(message *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *message
	s.messages[message.ID] = &cp
	return nil
}

func (s *memMessageStore) GetByID(id int64) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMessageStore) Update(message *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[message.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *message
	s.messages[message.ID] = &cp
	return nil
}

func (s *memMessageStore) visible() []models.ChatMessage {
	var out []models.ChatMessage
	for _, m := range s.messages {
		if !m.IsDeleted {
			out = append(out, *m)
		}
	}
	return out
}

func (s *memMessageStore) ListByGroup(groupID string, limit, offset int) ([]models.ChatMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range s.visible() {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (s *memMessageStore) ListBetween(userA, userB string, limit, offset int) ([]models.ChatMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range s.visible() {
		if m.RecipientID == "" {
			continue
		}
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (s *memMessageStore) Search(query, groupID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range s.visible() {
		if groupID != "" && m.GroupID != groupID {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memMessageStore) CountUnreadGroup(groupID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, m := range s.visible() {
		if m.GroupID == groupID && !m.ReadByUser(userID) {
			count++
		}
	}
	return count, nil
}

func (s *memMessageStore) CountUnreadDirect(userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, m := range s.visible() {
		if m.RecipientID == userID && !m.ReadByUser(userID) {
			count++
		}
	}
	return count, nil
}

type memChatStore struct {
	mu    sync.Mutex
	chats map[string]*models.PrivateChat
}

func newMemChatStore() *memChatStore {
	return &memChatStore{chats: make(map[string]*models.PrivateChat)}
}

func (s *memChatStore) Create(chat *models.PrivateChat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ParticipantA == chat.ParticipantA && c.ParticipantB == chat.ParticipantB {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *chat
	cp.CreatedAt = time.Now()
	s.chats[chat.ID] = &cp
	chat.CreatedAt = cp.CreatedAt
	return nil
}

func (s *memChatStore) GetByID(id string) (*models.PrivateChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memChatStore) GetByPair(userA, userB string) (*models.PrivateChat, error) {
	a, b := models.NormalizePair(userA, userB)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ParticipantA == a && c.ParticipantB == b {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memChatStore) ListForUser(userID string) ([]models.PrivateChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PrivateChat
	for _, c := range s.chats {
		if c.IsActive && c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memChatStore) SetLastMessage(chatID string, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LastMessageID = messageID
	return nil
}

// captureSink records delivered messages.
type captureSink struct {
	mu        sync.Mutex
	delivered []*models.ChatMessage
}

func (c *captureSink) Deliver(_ context.Context, msg *models.ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *msg
	c.delivered = append(c.delivered, &cp)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}
