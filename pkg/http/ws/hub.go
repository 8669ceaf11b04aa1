package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Upgrader promotes HTTP requests to WebSocket connections. Cross-origin
// policy is enforced by the HTTP middleware in front of it.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub manages WebSocket connections and groups them by room for broadcasts.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection // user_id -> connection
	rooms       map[string][]string    // room_key -> []user_id
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		rooms:       make(map[string][]string),
		logger:      logger,
	}
}

// RegisterConnection adds a connection for a user. An existing connection
// for the same user is replaced.
func (h *Hub) RegisterConnection(userID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[userID]; exists {
		old.Close()
	}

	h.connections[userID] = conn
	h.logger.Info().Str("user_id", userID).Msg("connection registered")
}

// UnregisterConnection removes a connection and its room memberships.
func (h *Hub) UnregisterConnection(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[userID]; exists {
		conn.Close()
		delete(h.connections, userID)
		h.logger.Info().Str("user_id", userID).Msg("connection unregistered")
	}

	for roomKey, users := range h.rooms {
		for i, uid := range users {
			if uid == userID {
				h.rooms[roomKey] = append(users[:i], users[i+1:]...)
				break
			}
		}
	}
}

// JoinRoom associates a user with a room for targeted broadcasts.
func (h *Hub) JoinRoom(roomKey, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := h.rooms[roomKey]
	for _, uid := range users {
		if uid == userID {
			return // already joined
		}
	}
	h.rooms[roomKey] = append(users, userID)
}

// LeaveRoom removes a user from a room.
func (h *Hub) LeaveRoom(roomKey, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := h.rooms[roomKey]
	for i, uid := range users {
		if uid == userID {
			h.rooms[roomKey] = append(users[:i], users[i+1:]...)
			break
		}
	}
}

// DropRoom forgets a room's membership list entirely.
func (h *Hub) DropRoom(roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomKey)
}

// BroadcastToRoom sends a message to every member of a room.
func (h *Hub) BroadcastToRoom(roomKey string, msg Message) error {
	h.mu.RLock()
	users := make([]string, len(h.rooms[roomKey]))
	copy(users, h.rooms[roomKey])
	h.mu.RUnlock()

	var firstErr error
	for _, userID := range users {
		if err := h.SendToUser(userID, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SendToUser delivers a message to one specific connection.
func (h *Hub) SendToUser(userID string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}

	return conn.Send(msg)
}

// RoomMembers returns a snapshot of a room's connected users.
func (h *Hub) RoomMembers(roomKey string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, len(h.rooms[roomKey]))
	copy(members, h.rooms[roomKey])
	return members
}

// Connection represents a WebSocket connection with a buffered send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a gorilla WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery. It never blocks on a slow reader.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "User connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
