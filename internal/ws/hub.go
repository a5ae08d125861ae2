package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/models"
)

// deliverChannel is the Redis pub/sub channel carrying cross-node
// deliveries.
const deliverChannel = "chat:deliver"

// Envelope is the frame pushed to websocket clients. Exactly one of
// GroupID / RecipientID is set, mirroring the message it carries.
type Envelope struct {
	GroupID     string `json:"group_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	SenderID    string `json:"sender_id,omitempty"`
	Message     any    `json:"message"`
}

// Hub tracks live websocket clients and routes message envelopes to
// them. With a Redis client attached, deliveries go through pub/sub so
// every node sees them; without one the hub broadcasts locally only.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	rooms       map[string]map[*Client]bool // group ID -> clients
	userClients map[string]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan *Envelope

	redis  *redis.Client
	logger *zap.Logger
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		userClients: make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		deliver:     make(chan *Envelope, 64),
		redis:       redisClient,
		logger:      logger,
	}
}

// Run processes registrations and deliveries until the context is
// cancelled. Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	if h.redis != nil {
		go h.subscribe(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.userID] = client
			for _, groupID := range client.groupIDs {
				if _, ok := h.rooms[groupID]; !ok {
					h.rooms[groupID] = make(map[*Client]bool)
				}
				h.rooms[groupID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case env := <-h.deliver:
			h.dispatch(env)
		}
	}
}

// drop removes a client from all indexes. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if h.userClients[client.userID] == client {
		delete(h.userClients, client.userID)
	}
	close(client.send)
	for _, groupID := range client.groupIDs {
		if room, ok := h.rooms[groupID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, groupID)
			}
		}
	}
}

func (h *Hub) dispatch(env *Envelope) {
	h.mu.RLock()
	var targets []*Client
	if env.GroupID != "" {
		for client := range h.rooms[env.GroupID] {
			targets = append(targets, client)
		}
	} else {
		if client, ok := h.userClients[env.RecipientID]; ok {
			targets = append(targets, client)
		}
		// echo to the sender's other session
		if client, ok := h.userClients[env.SenderID]; ok {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	var stalled []*Client
	for _, client := range targets {
		select {
		case client.send <- env:
		default:
			stalled = append(stalled, client)
		}
	}

	if len(stalled) > 0 {
		h.mu.Lock()
		for _, client := range stalled {
			h.drop(client)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, deliverChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("bad delivery payload", zap.Error(err))
				continue
			}
			h.deliver <- &env
		}
	}
}

// Deliver routes a persisted message to connected clients. It satisfies
// the delivery sink used by the message service in degraded mode and by
// the Kafka consumer in normal operation.
func (h *Hub) Deliver(ctx context.Context, msg *models.ChatMessage) error {
	env := &Envelope{
		GroupID:     msg.GroupID,
		RecipientID: msg.RecipientID,
		SenderID:    msg.SenderID,
		Message:     msg,
	}

	if h.redis != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return h.redis.Publish(ctx, deliverChannel, payload).Err()
	}

	h.deliver <- env
	return nil
}

// ConnectedUsers reports how many distinct users are connected.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients)
}
