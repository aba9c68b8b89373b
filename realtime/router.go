package realtime

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router decides which connections receive each event. Delivery is
// fire-and-forget: broadcast failures are logged, never surfaced to the
// submitter.
type Router struct {
	hub    *Hub
	logger *zap.Logger
}

func NewRouter(hub *Hub, logger *zap.Logger) *Router {
	return &Router{hub: hub, logger: logger}
}

func envelope(event string, data interface{}) Envelope {
	return Envelope{
		Event:     event,
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		Data:      data,
	}
}

// EmitToRole delivers to every connection with the given role.
func (r *Router) EmitToRole(role Role, event string, data interface{}) {
	env := envelope(event, data)
	clients := r.hub.snapshotRole(role)
	for _, c := range clients {
		r.hub.deliver(c, env)
	}
	r.logger.Debug("emit to role",
		zap.String("event", event),
		zap.String("role", string(role)),
		zap.Int("recipients", len(clients)))
}

// EmitToUser delivers to the user's personal room only.
func (r *Router) EmitToUser(userID, event string, data interface{}) {
	env := envelope(event, data)
	clients := r.hub.snapshotRoom(UserRoom(userID))
	for _, c := range clients {
		r.hub.deliver(c, env)
	}
	r.logger.Debug("emit to user",
		zap.String("event", event),
		zap.String("userId", userID),
		zap.Int("recipients", len(clients)))
}

// EmitToRoom delivers to a named room.
func (r *Router) EmitToRoom(room, event string, data interface{}) {
	env := envelope(event, data)
	for _, c := range r.hub.snapshotRoom(room) {
		r.hub.deliver(c, env)
	}
}

// EmitToAll delivers to every live connection (peer broadcast).
func (r *Router) EmitToAll(event string, data interface{}) {
	env := envelope(event, data)
	clients := r.hub.snapshotAll()
	for _, c := range clients {
		r.hub.deliver(c, env)
	}
	r.logger.Debug("emit to all",
		zap.String("event", event),
		zap.Int("recipients", len(clients)))
}

// EmitToConn delivers to one connection, used for the dashboard join
// snapshot and error frames.
func (r *Router) EmitToConn(connID, event string, data interface{}) {
	c, ok := r.hub.client(connID)
	if !ok {
		return
	}
	r.hub.deliver(c, envelope(event, data))
}
