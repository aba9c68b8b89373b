package services

import (
	"context"
	"sync"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safezonex-be/models"
	"safezonex-be/realtime"
	"safezonex-be/scoring"
	"safezonex-be/store"
)

type recordedEmit struct {
	audience string
	event    string
	data     interface{}
}

// fakeEmitter records emissions so tests can assert on audience and event.
type fakeEmitter struct {
	mu    sync.Mutex
	emits []recordedEmit
}

func (f *fakeEmitter) EmitToRole(role realtime.Role, event string, data interface{}) {
	f.record("role:"+string(role), event, data)
}

func (f *fakeEmitter) EmitToUser(userID, event string, data interface{}) {
	f.record("user:"+userID, event, data)
}

func (f *fakeEmitter) EmitToAll(event string, data interface{}) {
	f.record("all", event, data)
}

func (f *fakeEmitter) record(audience, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, recordedEmit{audience: audience, event: event, data: data})
}

func (f *fakeEmitter) events(audience string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.emits {
		if e.audience == audience {
			out = append(out, e.event)
		}
	}
	return out
}

func (f *fakeEmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emits)
}

type fakeDeduper struct {
	accept bool
}

func (d fakeDeduper) ShouldAccept(context.Context, string) (bool, error) {
	return d.accept, nil
}

func newTestAlertService(t *testing.T, accept bool) (*AlertService, *fakeEmitter, *store.MemoryAlertStore) {
	t.Helper()
	emitter := &fakeEmitter{}
	st := store.NewMemoryAlertStore()
	cache := gocache.New(time.Minute, 0)
	svc := NewAlertService(st, fakeDeduper{accept: accept}, scoring.HeuristicClassifier{}, emitter, cache, zap.NewNop())
	return svc, emitter, st
}

func TestSubmitPublishesHighConfidenceReport(t *testing.T) {
	svc, emitter, st := newTestAlertService(t, true)

	alert, err := svc.Submit(context.Background(), SubmitInput{
		UserID:      "u1",
		UserName:    "Aisha",
		Description: "Armed robbery in progress near the main library entrance, suspect has a gun",
		Latitude:    3.1234,
		Longitude:   101.5678,
		Category:    models.TheftRobbery,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, alert.Status)
	assert.Equal(t, models.PriorityCritical, alert.Priority)
	assert.GreaterOrEqual(t, alert.Confidence, PublishThreshold)

	persisted, err := st.FindByID(context.Background(), alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, alert.Confidence, persisted.Confidence)

	assert.Equal(t, []string{realtime.EventReportUpdate}, emitter.events("role:"+string(realtime.RoleDashboard)))
	assert.Equal(t, []string{realtime.EventFeedbackRequest}, emitter.events("all"))
}

func TestSubmitSuppressesLowConfidenceReport(t *testing.T) {
	svc, emitter, st := newTestAlertService(t, true)

	alert, err := svc.Submit(context.Background(), SubmitInput{
		UserID:      "u1",
		Description: "just testing this demo",
	})
	require.NoError(t, err)
	assert.Less(t, alert.Confidence, PublishThreshold)

	// Suppressed reports are persisted and queryable, just not broadcast.
	_, err = st.FindByID(context.Background(), alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, 0, emitter.count())
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	svc, emitter, st := newTestAlertService(t, false)

	_, err := svc.Submit(context.Background(), SubmitInput{
		UserID:      "u1",
		Description: "suspicious person at block C",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, total, err := st.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "rejected submissions are not persisted")
	assert.Equal(t, 0, emitter.count())
}

func TestSubmitUnknownCategoryFallsBackToOther(t *testing.T) {
	svc, _, _ := newTestAlertService(t, true)

	alert, err := svc.Submit(context.Background(), SubmitInput{
		UserID:      "u1",
		Description: "something happened",
		Category:    models.AlertCategory("Alien Sighting"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OtherCategory, alert.Category)
}

func TestUpdateStatusEmitsAndGuardsTerminal(t *testing.T) {
	svc, emitter, _ := newTestAlertService(t, true)
	ctx := context.Background()

	alert, err := svc.Submit(ctx, SubmitInput{
		UserID:      "u1",
		Description: "Armed robbery in progress near the main library entrance, suspect has a gun",
		Category:    models.TheftRobbery,
	})
	require.NoError(t, err)

	resolved, err := svc.UpdateStatus(ctx, alert.AlertID, store.StatusUpdate{
		Status:     models.StatusResolved,
		Resolution: "patrol dispatched, suspect detained",
		ResolvedBy: "guard-7",
	})
	require.NoError(t, err)
	assert.True(t, resolved.Status.Terminal())

	events := emitter.events("role:" + string(realtime.RoleDashboard))
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EventReportStatusUpdated, events[1])

	_, err = svc.UpdateStatus(ctx, alert.AlertID, store.StatusUpdate{Status: models.StatusInvestigating})
	assert.ErrorIs(t, err, store.ErrTerminalStatus)

	_, err = svc.UpdateStatus(ctx, "missing", store.StatusUpdate{Status: models.StatusResolved})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConfirmRealUpgradesOnce(t *testing.T) {
	svc, emitter, _ := newTestAlertService(t, true)
	ctx := context.Background()

	// Baseline score, below both publish threshold and verified tier.
	alert, err := svc.Submit(ctx, SubmitInput{UserID: "u1", Description: ""})
	require.NoError(t, err)
	require.Equal(t, models.StatusNeedsReview, alert.Status)

	upgraded, err := svc.ConfirmReal(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, upgraded.Status)

	assert.Equal(t, []string{realtime.EventReportUpdate}, emitter.events("role:"+string(realtime.RoleDashboard)))
	assert.Equal(t, []string{realtime.EventFeedbackResponse}, emitter.events("all"))

	before := emitter.count()
	again, err := svc.ConfirmReal(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, again.Status)
	assert.Equal(t, before, emitter.count(), "repeat confirmation is a no-op")
}

func TestGetFallsBackToStore(t *testing.T) {
	svc, _, _ := newTestAlertService(t, true)
	ctx := context.Background()

	alert, err := svc.Submit(ctx, SubmitInput{UserID: "u1", Description: "broken streetlight at gate 2"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, alert.AlertID, got.AlertID)

	svc.cache.Delete(alert.AlertID)
	got, err = svc.Get(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, alert.AlertID, got.AlertID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSnapshotExcludesResolved(t *testing.T) {
	svc, _, _ := newTestAlertService(t, true)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitInput{UserID: "u1", Description: "broken streetlight at gate 2"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitInput{UserID: "u2", Description: "graffiti on the east wall again"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.AlertID, store.StatusUpdate{Status: models.StatusFalseAlarm})
	require.NoError(t, err)

	alerts, total, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, alerts, 1)
	assert.NotEqual(t, first.AlertID, alerts[0].AlertID)
}
