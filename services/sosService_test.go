package services

import (
	"testing"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safezonex-be/models"
	"safezonex-be/realtime"
)

func newTestSOSService(t *testing.T) (*SOSService, *fakeEmitter) {
	t.Helper()
	emitter := &fakeEmitter{}
	svc := NewSOSService(gocache.New(gocache.NoExpiration, 0), emitter, zap.NewNop())
	return svc, emitter
}

func TestRaiseBroadcastsBothAudiences(t *testing.T) {
	svc, emitter := newTestSOSService(t)

	event, err := svc.Raise(RaiseInput{
		UserID:    "u1",
		UserName:  "Aisha",
		Latitude:  3.1234,
		Longitude: 101.5678,
		Message:   "help me",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.SOSID)
	assert.Equal(t, models.SOSActive, event.Status)

	assert.Equal(t, []string{realtime.EventFriendSOSAlert}, emitter.events("all"))
	assert.Equal(t, []string{realtime.EventSecuritySOSAlert}, emitter.events("role:"+string(realtime.RoleDashboard)))

	active, ok := svc.Active("u1")
	require.True(t, ok)
	assert.Equal(t, event.SOSID, active.SOSID)

	_, err = svc.Raise(RaiseInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrSOSAlreadyActive)
}

func TestUpdateLocationFansOut(t *testing.T) {
	svc, emitter := newTestSOSService(t)

	_, err := svc.Raise(RaiseInput{UserID: "u1", Latitude: 3.1, Longitude: 101.5})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLocation("u1", 3.2, 101.6))

	active, ok := svc.Active("u1")
	require.True(t, ok)
	assert.Equal(t, 3.2, active.Latitude)
	assert.Equal(t, 101.6, active.Longitude)

	all := emitter.events("all")
	require.Len(t, all, 2)
	assert.Equal(t, realtime.EventFriendLocation, all[1])

	assert.ErrorIs(t, svc.UpdateLocation("nobody", 0, 0), ErrNoActiveSOS)
}

func TestAcknowledgeCollapsesRepeats(t *testing.T) {
	svc, emitter := newTestSOSService(t)

	_, err := svc.Raise(RaiseInput{UserID: "u1", UserName: "Aisha"})
	require.NoError(t, err)

	event, err := svc.Acknowledge("u1", "f1", "Ben")
	require.NoError(t, err)
	assert.Len(t, event.Acks, 1)

	event, err = svc.Acknowledge("u1", "f2", "Chen")
	require.NoError(t, err)
	assert.Len(t, event.Acks, 2)

	// A repeat ack from the same friend still notifies but adds no entry.
	event, err = svc.Acknowledge("u1", "f1", "Ben")
	require.NoError(t, err)
	assert.Len(t, event.Acks, 2)

	// Acknowledgments go to the originator only.
	assert.Len(t, emitter.events("user:u1"), 3)
	for _, ev := range emitter.events("user:u1") {
		assert.Equal(t, realtime.EventSOSAcknowledged, ev)
	}

	_, err = svc.Acknowledge("nobody", "f1", "Ben")
	assert.ErrorIs(t, err, ErrNoActiveSOS)
}

func TestAcknowledgeRejectsAnonymousFriend(t *testing.T) {
	svc, emitter := newTestSOSService(t)

	event, err := svc.Raise(RaiseInput{UserID: "u1"})
	require.NoError(t, err)

	// A connection that never registered has no user id; its ack must not
	// land as an empty entry in the bookkeeping.
	_, err = svc.Acknowledge("u1", "", "Ben")
	assert.ErrorIs(t, err, ErrAnonymousAck)

	active, ok := svc.Active("u1")
	require.True(t, ok)
	assert.Empty(t, active.Acks)
	assert.Empty(t, emitter.events("user:u1"))
	assert.Equal(t, event.SOSID, active.SOSID)
}

func TestEndClearsStateAndNotifies(t *testing.T) {
	svc, emitter := newTestSOSService(t)

	_, err := svc.Raise(RaiseInput{UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, svc.End("u1"))

	_, ok := svc.Active("u1")
	assert.False(t, ok)
	assert.Empty(t, svc.ListActive())

	all := emitter.events("all")
	require.Len(t, all, 2)
	assert.Equal(t, realtime.EventFriendSOSEnded, all[1])

	assert.ErrorIs(t, svc.End("u1"), ErrNoActiveSOS)
}

func TestListActiveReturnsEveryLiveSOS(t *testing.T) {
	svc, _ := newTestSOSService(t)

	_, err := svc.Raise(RaiseInput{UserID: "u1"})
	require.NoError(t, err)
	_, err = svc.Raise(RaiseInput{UserID: "u2"})
	require.NoError(t, err)

	active := svc.ListActive()
	assert.Len(t, active, 2)

	require.NoError(t, svc.End("u1"))
	assert.Len(t, svc.ListActive(), 1)
}
