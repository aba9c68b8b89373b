package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient attaches a client without a real websocket connection; the
// pumps never start, so delivered envelopes stay in the send queue for
// inspection.
func newTestClient(h *Hub) *Client {
	c := &Client{
		ID:    uuid.NewString(),
		hub:   h,
		send:  make(chan Envelope, sendQueueSize),
		rooms: make(map[string]bool),
	}
	h.attach(c)
	return c
}

func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case env := <-c.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestRegisterJoinsRooms(t *testing.T) {
	h := NewHub(zap.NewNop())

	dash := newTestClient(h)
	require.NoError(t, h.Register(dash.ID, RoleDashboard, ""))
	assert.True(t, dash.rooms[RoomDashboard])

	mobile := newTestClient(h)
	require.NoError(t, h.Register(mobile.ID, RoleMobile, "u1"))
	assert.True(t, mobile.rooms[UserRoom("u1")])

	m, d := h.Counts()
	assert.Equal(t, 1, m)
	assert.Equal(t, 1, d)

	assert.Error(t, h.Register("no-such-conn", RoleMobile, "u1"))
}

func TestPresenceReferenceCounting(t *testing.T) {
	h := NewHub(zap.NewNop())
	var online, offline int
	h.OnUserOnline = func(string) { online++ }
	h.OnUserOffline = func(string) { offline++ }

	first := newTestClient(h)
	second := newTestClient(h)
	require.NoError(t, h.Register(first.ID, RoleMobile, "u1"))
	require.NoError(t, h.Register(second.ID, RoleMobile, "u1"))

	assert.Equal(t, 1, online, "online fires only on the first connection")
	assert.True(t, h.IsOnline("u1"))

	h.Unregister(first.ID)
	assert.Equal(t, 0, offline, "a second connection keeps the user online")
	assert.True(t, h.IsOnline("u1"))

	h.Unregister(second.ID)
	assert.Equal(t, 1, offline)
	assert.False(t, h.IsOnline("u1"))

	_, seen := h.LastSeen("u1")
	assert.True(t, seen, "presence history survives disconnect")
}

func TestIsOnlineRequiresRecentActivity(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h)
	require.NoError(t, h.Register(c.ID, RoleMobile, "u1"))
	require.True(t, h.IsOnline("u1"))

	h.mu.Lock()
	h.presence["u1"].lastActivity = time.Now().Add(-6 * time.Minute)
	h.mu.Unlock()
	assert.False(t, h.IsOnline("u1"), "a stale connection counts as offline")

	h.Touch("u1")
	assert.True(t, h.IsOnline("u1"))
}

func TestUnregisterClosesSendQueue(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h)
	require.NoError(t, h.Register(c.ID, RoleMobile, "u1"))

	h.Unregister(c.ID)
	_, open := <-c.send
	assert.False(t, open)

	// Delivery to a removed client is a no-op, never a send on a closed
	// channel.
	h.deliver(c, Envelope{Event: EventReportUpdate})
	h.Unregister(c.ID)
}

func TestRouterAudiences(t *testing.T) {
	h := NewHub(zap.NewNop())
	r := NewRouter(h, zap.NewNop())

	dash := newTestClient(h)
	m1 := newTestClient(h)
	m2 := newTestClient(h)
	require.NoError(t, h.Register(dash.ID, RoleDashboard, ""))
	require.NoError(t, h.Register(m1.ID, RoleMobile, "u1"))
	require.NoError(t, h.Register(m2.ID, RoleMobile, "u2"))

	r.EmitToRole(RoleDashboard, EventReportUpdate, nil)
	assert.Len(t, drain(dash), 1)
	assert.Empty(t, drain(m1))
	assert.Empty(t, drain(m2))

	r.EmitToUser("u1", EventSOSAcknowledged, nil)
	assert.Len(t, drain(m1), 1)
	assert.Empty(t, drain(dash))
	assert.Empty(t, drain(m2))

	r.EmitToAll(EventFriendSOSAlert, nil)
	assert.Len(t, drain(dash), 1)
	assert.Len(t, drain(m1), 1)
	assert.Len(t, drain(m2), 1)

	r.EmitToConn(dash.ID, EventInitialReports, nil)
	got := drain(dash)
	require.Len(t, got, 1)
	assert.Equal(t, EventInitialReports, got[0].Event)
	assert.NotEmpty(t, got[0].EventID)

	r.EmitToConn("no-such-conn", EventInitialReports, nil)
}

func TestEmitToRoom(t *testing.T) {
	h := NewHub(zap.NewNop())
	r := NewRouter(h, zap.NewNop())

	a := newTestClient(h)
	b := newTestClient(h)
	h.JoinRoom(a.ID, "patrol_zone_4")

	r.EmitToRoom("patrol_zone_4", EventConnectionUpdate, nil)
	assert.Len(t, drain(a), 1)
	assert.Empty(t, drain(b))
}

func TestRelativeLastSeen(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", RelativeLastSeen(now.Add(-30*time.Second)))
	assert.Equal(t, "5 minutes ago", RelativeLastSeen(now.Add(-5*time.Minute)))
	assert.Equal(t, "3 hours ago", RelativeLastSeen(now.Add(-3*time.Hour)))
	assert.Equal(t, "2 days ago", RelativeLastSeen(now.Add(-49*time.Hour)))
}
