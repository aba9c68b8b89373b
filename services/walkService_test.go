package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safezonex-be/models"
	"safezonex-be/realtime"
	"safezonex-be/store"
)

func newTestWalkService(t *testing.T) (*WalkService, *fakeEmitter, *store.MemoryWalkStore) {
	t.Helper()
	emitter := &fakeEmitter{}
	st := store.NewMemoryWalkStore()
	svc := NewWalkService(st, emitter, zap.NewNop())
	return svc, emitter, st
}

func requestWalk(t *testing.T, svc *WalkService) *models.WalkSession {
	t.Helper()
	session, err := svc.Request(context.Background(), WalkRequestInput{
		RequesterID:   "u1",
		RequesterName: "Aisha",
		StartLocation: models.Location{Latitude: 3.12, Longitude: 101.56},
		EndLocation:   models.Location{Latitude: 3.13, Longitude: 101.57},
	})
	require.NoError(t, err)
	return session
}

func TestWalkRequestNotifiesMobilePeers(t *testing.T) {
	svc, emitter, st := newTestWalkService(t)

	session := requestWalk(t, svc)
	assert.Equal(t, models.WalkPending, session.Status)
	assert.NotEmpty(t, session.SessionID)

	assert.Equal(t, []string{realtime.EventPartnerRequest}, emitter.events("role:"+string(realtime.RoleMobile)))

	persisted, err := st.FindBySessionID(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "u1", persisted.RequesterID)
}

func TestWalkAcceptFirstWins(t *testing.T) {
	svc, emitter, _ := newTestWalkService(t)
	ctx := context.Background()

	session := requestWalk(t, svc)

	matched, err := svc.Accept(ctx, session.SessionID, "u2", "Ben")
	require.NoError(t, err)
	assert.Equal(t, models.WalkMatched, matched.Status)
	assert.Equal(t, "u2", matched.PartnerID)

	// The requester, and only the requester, hears about the match.
	assert.Equal(t, []string{realtime.EventPartnerMatched}, emitter.events("user:u1"))

	_, err = svc.Accept(ctx, session.SessionID, "u3", "Chen")
	assert.ErrorIs(t, err, store.ErrSessionClosed)

	_, err = svc.Accept(ctx, "no-such-session", "u2", "Ben")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWalkAcceptRejectsOwnRequest(t *testing.T) {
	svc, _, _ := newTestWalkService(t)

	session := requestWalk(t, svc)

	_, err := svc.Accept(context.Background(), session.SessionID, "u1", "Aisha")
	assert.ErrorIs(t, err, ErrOwnRequest)
}

func TestWalkLocationRelaysToCounterpart(t *testing.T) {
	svc, emitter, _ := newTestWalkService(t)
	ctx := context.Background()

	session := requestWalk(t, svc)
	_, err := svc.Accept(ctx, session.SessionID, "u2", "Ben")
	require.NoError(t, err)

	// Requester's position goes to the partner; partner's goes back.
	require.NoError(t, svc.UpdateLocation(ctx, session.SessionID, "u1", 3.125, 101.565))
	assert.Equal(t, []string{realtime.EventPartnerLocation}, emitter.events("user:u2"))

	require.NoError(t, svc.UpdateLocation(ctx, session.SessionID, "u2", 3.126, 101.566))
	assert.Contains(t, emitter.events("user:u1"), realtime.EventPartnerLocation)

	err = svc.UpdateLocation(ctx, session.SessionID, "u9", 0, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestWalkLocationRejectedBeforeMatch(t *testing.T) {
	svc, _, _ := newTestWalkService(t)

	session := requestWalk(t, svc)
	err := svc.UpdateLocation(context.Background(), session.SessionID, "u1", 3.125, 101.565)
	assert.Error(t, err)
}

func TestWalkEndNotifiesCounterpart(t *testing.T) {
	svc, emitter, st := newTestWalkService(t)
	ctx := context.Background()

	session := requestWalk(t, svc)
	_, err := svc.Accept(ctx, session.SessionID, "u2", "Ben")
	require.NoError(t, err)

	require.NoError(t, svc.End(ctx, session.SessionID, "u1", true))

	ended, err := st.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.WalkCompleted, ended.Status)
	assert.Contains(t, emitter.events("user:u2"), realtime.EventWalkSessionEnded)

	assert.ErrorIs(t, svc.End(ctx, session.SessionID, "u1", false), store.ErrSessionClosed)
	assert.ErrorIs(t, svc.UpdateLocation(ctx, session.SessionID, "u1", 3.13, 101.57), store.ErrSessionClosed)
}

func TestWalkCancelBeforeMatch(t *testing.T) {
	svc, _, st := newTestWalkService(t)
	ctx := context.Background()

	session := requestWalk(t, svc)
	require.NoError(t, svc.End(ctx, session.SessionID, "u1", false))

	cancelled, err := st.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.WalkCancelled, cancelled.Status)

	// A stranger cannot close someone else's request.
	other := requestWalk(t, svc)
	assert.ErrorIs(t, svc.End(ctx, other.SessionID, "u9", false), ErrNotParticipant)
}
