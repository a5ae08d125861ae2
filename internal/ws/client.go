package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/middlewares"
	"github.com/learninverse/server/internal/models"
	"github.com/learninverse/server/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be shorter than pongWait
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection for one authenticated user.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan *Envelope
	userID   string
	groupIDs []string

	messageSvc *services.MessageService
	logger     *zap.Logger
}

// inboundFrame is what clients send over the socket. It mirrors the
// HTTP send request.
type inboundFrame struct {
	GroupID     string `json:"group_id"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	Type        string `json:"type"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed",
					zap.String("user_id", c.userID),
					zap.Error(err))
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn("bad websocket frame",
				zap.String("user_id", c.userID),
				zap.Error(err))
			continue
		}

		// persistence and fan-out both happen in the service; the
		// sink wired there brings the message back to this hub
		_, err = c.messageSvc.SendMessage(context.Background(), c.userID, &services.SendMessageRequest{
			GroupID:     frame.GroupID,
			RecipientID: frame.RecipientID,
			Content:     frame.Content,
			Type:        models.MessageType(frame.Type),
		})
		if err != nil {
			c.logger.Warn("websocket send rejected",
				zap.String("user_id", c.userID),
				zap.Error(err))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			json.NewEncoder(w).Encode(env)

			// drain whatever queued up behind this envelope
			n := len(c.send)
			for range n {
				json.NewEncoder(w).Encode(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an authenticated request to a websocket connection
// and registers the client with the hub, subscribed to all of the
// user's groups.
func ServeWs(hub *Hub, messageSvc *services.MessageService, groupSvc *services.GroupService, logger *zap.Logger, c *gin.Context) {
	userID := middlewares.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groups, _, err := groupSvc.ListUserGroups(userID, 1, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}
	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan *Envelope, 256),
		userID:     userID,
		groupIDs:   groupIDs,
		messageSvc: messageSvc,
		logger:     logger,
	}
	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}
