package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameSize  = 1 << 20 // evidence images ride in report payloads
	sendQueueSize = 64
)

// Client is one live websocket connection.
type Client struct {
	ID     string
	Role   Role
	UserID string

	hub   *Hub
	conn  *websocket.Conn
	send  chan Envelope
	rooms map[string]bool
}

// readPump decodes inbound frames and dispatches them to the registered
// handler. Any inbound traffic counts as user activity.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error",
					zap.String("connId", c.ID), zap.Error(err))
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Warn("malformed client frame",
				zap.String("connId", c.ID), zap.Error(err))
			continue
		}

		c.hub.Touch(c.UserID)

		fn, ok := c.hub.handler(msg.Event)
		if !ok {
			c.hub.logger.Debug("unhandled client event",
				zap.String("connId", c.ID), zap.String("event", msg.Event))
			continue
		}
		fn(c, msg.Data)
	}
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.hub.logger.Warn("websocket write error",
					zap.String("connId", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
