package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Role is the kind of client behind a connection.
type Role string

const (
	RoleMobile    Role = "mobile"
	RoleDashboard Role = "web"
)

// onlineWindow is how recent a user's activity must be to count as online.
const onlineWindow = 5 * time.Minute

type presenceEntry struct {
	connections  int
	lastActivity time.Time
}

// Hub tracks live connections, their role and room memberships, and per-user
// presence. All maps are guarded by mu; connection reference counting means a
// user only goes offline when their last connection drops.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	rooms    map[string]map[string]*Client
	presence map[string]*presenceEntry
	handlers map[string]HandlerFunc
	logger   *zap.Logger

	// OnUserOffline and OnUserOnline fire outside the hub lock when a
	// user's first connection registers or last connection drops.
	OnUserOffline func(userID string)
	OnUserOnline  func(userID string)
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
		presence: make(map[string]*presenceEntry),
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers the handler for an inbound client event.
func (h *Hub) Handle(event string, fn HandlerFunc) {
	h.handlers[event] = fn
}

func (h *Hub) handler(event string) (HandlerFunc, bool) {
	fn, ok := h.handlers[event]
	return fn, ok
}

// Add wraps a websocket connection in a Client and starts its pumps.
func (h *Hub) Add(conn *websocket.Conn) *Client {
	client := &Client{
		ID:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		send:  make(chan Envelope, sendQueueSize),
		rooms: make(map[string]bool),
	}
	h.attach(client)

	go client.writePump()
	go client.readPump()
	return client
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Info("client connected", zap.String("connId", c.ID))
}

// Register assigns a role and optional user identity to a connection.
// Dashboard connections implicitly join the dashboard room; user connections
// join their personal room.
func (h *Hub) Register(connID string, role Role, userID string) error {
	h.mu.Lock()
	client, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("unknown connection %s", connID)
	}
	client.Role = role
	client.UserID = userID

	firstConnection := false
	if userID != "" {
		entry, ok := h.presence[userID]
		if !ok {
			entry = &presenceEntry{}
			h.presence[userID] = entry
			firstConnection = true
		}
		entry.connections++
		entry.lastActivity = time.Now()
	}
	h.mu.Unlock()

	if role == RoleDashboard {
		h.JoinRoom(connID, RoomDashboard)
	}
	if userID != "" {
		h.JoinRoom(connID, UserRoom(userID))
		if firstConnection && h.OnUserOnline != nil {
			h.OnUserOnline(userID)
		}
	}

	h.logger.Info("client registered",
		zap.String("connId", connID),
		zap.String("role", string(role)),
		zap.String("userId", userID))
	return nil
}

// JoinRoom adds a connection to a named room.
func (h *Hub) JoinRoom(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][connID] = client
	client.rooms[room] = true
}

// Touch records user activity for online/offline derivation.
func (h *Hub) Touch(userID string) {
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry, ok := h.presence[userID]; ok {
		entry.lastActivity = time.Now()
	}
}

// Unregister removes a connection and decrements its user's reference count.
// The offline callback fires only when no live connection remains for that
// user.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	client, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, connID)
	for room := range client.rooms {
		delete(h.rooms[room], connID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}

	lastConnection := false
	if client.UserID != "" {
		if entry, ok := h.presence[client.UserID]; ok {
			entry.connections--
			if entry.connections <= 0 {
				entry.connections = 0
				entry.lastActivity = time.Now()
				lastConnection = true
			}
		}
	}
	// Closing under the lock keeps deliver from racing a send against it.
	close(client.send)
	h.mu.Unlock()

	if lastConnection && h.OnUserOffline != nil {
		h.OnUserOffline(client.UserID)
	}

	h.logger.Info("client disconnected", zap.String("connId", connID))
}

// IsOnline reports whether the user has a live connection with recent
// activity.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.presence[userID]
	if !ok || entry.connections == 0 {
		return false
	}
	return time.Since(entry.lastActivity) < onlineWindow
}

// LastSeen returns the user's last activity time, if known.
func (h *Hub) LastSeen(userID string) (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.presence[userID]
	if !ok {
		return time.Time{}, false
	}
	return entry.lastActivity, true
}

// RelativeLastSeen renders a last-seen timestamp the way the mobile friend
// list shows it, bucketed into minutes, hours, and days.
func RelativeLastSeen(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

// Counts returns connection counts per role for the connection_update event
// and the health endpoint.
func (h *Hub) Counts() (mobile, dashboard int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		switch c.Role {
		case RoleMobile:
			mobile++
		case RoleDashboard:
			dashboard++
		}
	}
	return mobile, dashboard
}

func (h *Hub) snapshotAll() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) snapshotRoom(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		out = append(out, c)
	}
	return out
}

func (h *Hub) snapshotRole(role Role) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Client
	for _, c := range h.clients {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) client(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	return c, ok
}

// deliver enqueues an envelope for one client. The send queue is drained by
// the client's write pump; a full queue drops the frame rather than blocking
// a broadcast on one slow consumer.
func (h *Hub) deliver(c *Client, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	select {
	case c.send <- env:
	default:
		h.logger.Warn("send queue full, dropping event",
			zap.String("connId", c.ID),
			zap.String("event", env.Event))
	}
}
