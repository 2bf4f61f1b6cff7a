package ws

import (
	"sync"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/metrics"
)

// Hub is the process-wide connection registry: one entry per online user
// (last registration wins) plus conversation-scoped broadcast groups. It is
// the only shared mutable state in the server and must survive concurrent
// connects and disconnects.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]*Client
	rooms   map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]*Client),
		rooms:   make(map[uint]map[*Client]bool),
	}
}

// Register binds a connection to its user identity. A prior connection for
// the same user is evicted: last writer wins, no multi-device fan-out.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.clients[c.userID]; ok && prev != c {
		h.closeLocked(prev)
	}
	h.clients[c.userID] = c
	metrics.WsConnections.Inc()
}

// Unregister removes a connection. The registry entry is only cleared if it
// still points at this connection, so an evicted socket's teardown cannot
// drop its replacement.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.userID]; ok && cur == c {
		delete(h.clients, c.userID)
	}
	h.closeLocked(c)
}

// Join adds the connection to a conversation's broadcast group.
func (h *Hub) Join(c *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[*Client]bool)
		h.rooms[conversationID] = room
	}
	room[c] = true
}

// Relay fans a payload out to every member of the conversation's group
// except the sender. Slow clients whose buffers are full are evicted rather
// than allowed to stall the room.
func (h *Hub) Relay(conversationID uint, sender *Client, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[conversationID] {
		if c == sender {
			continue
		}
		select {
		case c.send <- payload:
		default:
			if cur, ok := h.clients[c.userID]; ok && cur == c {
				delete(h.clients, c.userID)
			}
			h.closeLocked(c)
		}
	}
	metrics.WsMessagesTotal.Inc()
}

// Online reports whether a user currently has a registered connection.
func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// RoomSize returns the number of connections in a conversation's group.
func (h *Hub) RoomSize(conversationID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// closeLocked closes a client's send channel once and removes it from every
// room. Callers must hold h.mu.
func (h *Hub) closeLocked(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	for id, room := range h.rooms {
		if room[c] {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, id)
			}
		}
	}
	metrics.WsConnections.Dec()
}
