package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/rbac"
)

const (
	keyPrefix     = "session:"
	identityTopic = "identity.events"
)

// ErrNoSession is returned when the user has no active session snapshot.
var ErrNoSession = errors.New("session: no active session")

// Identity is the snapshot kept per logged-in user. It is written on
// login, read on every guarded request, and removed on logout.
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      rbac.Role `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	LoginAt   time.Time `json:"login_at"`
}

// HasRole reports whether the identity's role meets the required floor.
func (id *Identity) HasRole(required rbac.Role) bool {
	return rbac.HasRole(id.Role, required)
}

func (id *Identity) IsStudent() bool { return id.Role == rbac.RoleStudent }

func (id *Identity) IsTeacher() bool { return id.Role == rbac.RoleTeacher }

// IsAdmin covers both admin and super_admin.
func (id *Identity) IsAdmin() bool { return id.HasRole(rbac.RoleAdmin) }

// Event describes a session lifecycle change published on the identity
// channel so other nodes can react (e.g. drop cached websocket auth).
type Event struct {
	Kind   string    `json:"kind"` // "login" or "logout"
	UserID string    `json:"user_id"`
	Role   rbac.Role `json:"role,omitempty"`
	At     time.Time `json:"at"`
}

// Store keeps identity snapshots in Redis and fans session events out
// over pub/sub.
type Store struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration

	mu       sync.Mutex
	pubsub   *redis.PubSub
	handlers []func(Event)
	done     chan struct{}
}

func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func sessionKey(userID string) string {
	return keyPrefix + userID
}

// Put stores the identity snapshot and publishes a login event.
func (s *Store) Put(ctx context.Context, id *Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(id.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.publish(ctx, Event{Kind: "login", UserID: id.UserID, Role: id.Role, At: time.Now()})
	return nil
}

// Get loads the identity snapshot for a user.
func (s *Store) Get(ctx context.Context, userID string) (*Identity, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &id, nil
}

// Exists reports whether the user currently has a session.
func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Touch extends the session TTL without rewriting the snapshot.
func (s *Store) Touch(ctx context.Context, userID string) error {
	ok, err := s.client.Expire(ctx, sessionKey(userID), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	return nil
}

// Remove deletes the session snapshot and publishes a logout event.
func (s *Store) Remove(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	s.publish(ctx, Event{Kind: "logout", UserID: userID, At: time.Now()})
	return nil
}

func (s *Store) publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, identityTopic, data).Err(); err != nil {
		s.logger.Warn("publish identity event failed",
			zap.String("kind", ev.Kind),
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}
}

// OnEvent registers a handler invoked for every identity event received
// after Start. Handlers run on the subscriber goroutine.
func (s *Store) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Start subscribes to the identity channel and dispatches events until
// Stop is called or the context is cancelled.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.pubsub != nil {
		s.mu.Unlock()
		return errors.New("session: store already started")
	}
	pubsub := s.client.Subscribe(ctx, identityTopic)
	s.pubsub = pubsub
	s.done = make(chan struct{})
	s.mu.Unlock()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe identity events: %w", err)
	}

	go func() {
		defer close(s.done)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.logger.Warn("bad identity event payload", zap.Error(err))
					continue
				}
				s.mu.Lock()
				handlers := make([]func(Event), len(s.handlers))
				copy(handlers, s.handlers)
				s.mu.Unlock()
				for _, fn := range handlers {
					fn(ev)
				}
			}
		}
	}()
	return nil
}

// Stop tears down the subscriber. Safe to call once after Start.
func (s *Store) Stop() error {
	s.mu.Lock()
	pubsub := s.pubsub
	done := s.done
	s.pubsub = nil
	s.mu.Unlock()
	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	if done != nil {
		<-done
	}
	return err
}
