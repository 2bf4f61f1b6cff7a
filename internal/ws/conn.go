package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/config"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	db       *gorm.DB
	userID   uint
	username string

	// closed is owned by the hub and only touched under its lock.
	closed bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// InboundEvent is what a connected client may send: join a conversation
// group, publish an already-persisted message, or signal typing state.
type InboundEvent struct {
	Type           string          `json:"type"`
	ConversationID uint            `json:"conversationId"`
	Message        json.RawMessage `json:"message"`
	IsTyping       bool            `json:"isTyping"`
}

type messageEvent struct {
	Type           string          `json:"type"`
	ConversationID uint            `json:"conversationId"`
	Message        json.RawMessage `json:"message"`
}

type typingEvent struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
	UserID         uint   `json:"userId"`
	Username       string `json:"username"`
	IsTyping       bool   `json:"isTyping"`
}

// Serve upgrades an authenticated request to a websocket and registers the
// connection under the caller's identity.
func Serve(hub *Hub, gdb *gorm.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
			return
		}
		claims, err := auth.ParseAccessToken(token, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		var user models.User
		if err := gdb.First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not found"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account deactivated"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{
			hub:      hub,
			conn:     conn,
			send:     make(chan []byte, 256),
			db:       gdb,
			userID:   user.ID,
			username: user.Username,
		}
		hub.Register(client)

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) isParticipant(conversationID uint) bool {
	var count int64
	err := c.db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, c.userID).
		Count(&count).Error
	if err != nil {
		log.Error().Err(err).Uint("conversation_id", conversationID).Msg("ws participant check")
		return false
	}
	return count > 0
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20) // 1MB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in InboundEvent
		if err := json.Unmarshal(data, &in); err != nil || in.ConversationID == 0 {
			continue
		}
		switch in.Type {
		case "join":
			// Membership is re-checked server-side; the REST layer having
			// shown the conversation to this client is not trusted here.
			if c.isParticipant(in.ConversationID) {
				c.hub.Join(c, in.ConversationID)
			}
		case "message":
			// The relay is only a notification hint: the message in the
			// payload was already persisted through the REST path.
			if len(in.Message) == 0 || !c.isParticipant(in.ConversationID) {
				continue
			}
			out := messageEvent{Type: "new-message", ConversationID: in.ConversationID, Message: in.Message}
			if b, err := json.Marshal(out); err == nil {
				c.hub.Relay(in.ConversationID, c, b)
			}
		case "typing":
			evt := typingEvent{
				Type:           "typing",
				ConversationID: in.ConversationID,
				UserID:         c.userID,
				Username:       c.username,
				IsTyping:       in.IsTyping,
			}
			if b, err := json.Marshal(evt); err == nil {
				c.hub.Relay(in.ConversationID, c, b)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
