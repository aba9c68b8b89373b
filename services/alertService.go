// Package services holds the alert and SOS lifecycle controllers: the path
// from "a report arrives" to "it is deduplicated, scored, persisted, cached,
// and fanned out to live subscribers".
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"safezonex-be/dedup"
	"safezonex-be/models"
	"safezonex-be/realtime"
	"safezonex-be/scoring"
	"safezonex-be/store"
)

// ErrDuplicate is the distinguished duplicate-submission rejection. It is a
// client-visible outcome, not a server fault.
var ErrDuplicate = errors.New("duplicate submission inside dedup window")

// PublishThreshold is the minimum confidence for a new report to be broadcast
// to the dashboard. Records below it are persisted but suppressed: queryable
// by id, absent from the default list, eligible for later manual review.
const PublishThreshold = 50

// Middle-band scores get an asynchronous second opinion from the classifier.
const (
	rescoreLow  = 40
	rescoreHigh = 69
)

// Deduper is the dedup guard capability the service needs.
type Deduper interface {
	ShouldAccept(ctx context.Context, fingerprint string) (bool, error)
}

// Emitter is the broadcast capability the lifecycle controllers need.
// *realtime.Router satisfies it.
type Emitter interface {
	EmitToRole(role realtime.Role, event string, data interface{})
	EmitToUser(userID, event string, data interface{})
	EmitToAll(event string, data interface{})
}

// SubmitInput is a validated report submission.
type SubmitInput struct {
	UserID         string
	UserName       string
	UserPhone      string
	Description    string
	Latitude       float64
	Longitude      float64
	Address        string
	Campus         string
	Category       models.AlertCategory
	EvidenceImages []string
}

// AlertService orchestrates the report lifecycle:
// received -> dedup-rejected | scored -> persisted -> published|suppressed ->
// status-updated* -> resolved|false_alarm.
type AlertService struct {
	store      store.AlertStore
	guard      Deduper
	classifier scoring.Classifier
	router     Emitter
	cache      *gocache.Cache
	logger     *zap.Logger
}

func NewAlertService(st store.AlertStore, guard Deduper, classifier scoring.Classifier, router Emitter, cache *gocache.Cache, logger *zap.Logger) *AlertService {
	return &AlertService{
		store:      st,
		guard:      guard,
		classifier: classifier,
		router:     router,
		cache:      cache,
		logger:     logger,
	}
}

// Submit runs the intake pipeline. Persistence failures surface synchronously;
// broadcast happens only after a successful write and never blocks or fails
// the response.
func (s *AlertService) Submit(ctx context.Context, input SubmitInput) (*models.Alert, error) {
	fingerprint := dedup.Fingerprint(input.UserID, input.Description, input.Latitude, input.Longitude)
	accepted, err := s.guard.ShouldAccept(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if !accepted {
		s.logger.Info("duplicate submission suppressed",
			zap.String("userId", input.UserID),
			zap.String("fingerprint", fingerprint))
		return nil, ErrDuplicate
	}

	category := input.Category
	if !models.ValidCategories[category] {
		category = models.OtherCategory
	}

	result := scoring.Score(input.Description, len(input.EvidenceImages), category)

	alert := &models.Alert{
		AlertID:     uuid.NewString(),
		UserID:      input.UserID,
		UserName:    input.UserName,
		UserPhone:   input.UserPhone,
		Description: input.Description,
		Location: models.Location{
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
			Address:   input.Address,
			Campus:    input.Campus,
		},
		Category:        category,
		EvidenceImages:  input.EvidenceImages,
		Confidence:      result.Confidence,
		Status:          result.Status,
		Priority:        result.Priority,
		VerificationTag: result.Tag,
		Explanation:     result.Explanation,
	}

	if err := s.store.Create(ctx, alert); err != nil {
		s.logger.Error("failed to persist alert",
			zap.String("alertId", alert.AlertID), zap.Error(err))
		return nil, err
	}

	s.cache.Set(alert.AlertID, *alert, gocache.DefaultExpiration)

	if alert.Confidence >= PublishThreshold {
		s.router.EmitToRole(realtime.RoleDashboard, realtime.EventReportUpdate, alert)
		s.router.EmitToAll(realtime.EventFeedbackRequest, map[string]interface{}{
			"reportId":    alert.AlertID,
			"reportText":  alert.Description,
			"latitude":    alert.Location.Latitude,
			"longitude":   alert.Location.Longitude,
			"submittedBy": alert.UserID,
		})
	} else {
		s.logger.Info("alert below publish threshold, suppressed from dashboard",
			zap.String("alertId", alert.AlertID),
			zap.Int("confidence", alert.Confidence))
	}

	if alert.Confidence >= rescoreLow && alert.Confidence <= rescoreHigh {
		go s.rescore(alert.AlertID, input.Description, scoring.Metadata{
			EvidenceImages: len(input.EvidenceImages),
			Category:       category,
		})
	}

	s.logger.Info("alert accepted",
		zap.String("alertId", alert.AlertID),
		zap.Int("confidence", alert.Confidence),
		zap.String("status", string(alert.Status)),
		zap.String("priority", string(alert.Priority)))

	return alert, nil
}

// rescore asks the classifier for a second opinion on an ambiguous report.
// The submitter's response has long since gone out; a changed result emits a
// follow-up report_update.
func (s *AlertService) rescore(alertID, description string, meta scoring.Metadata) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := s.classifier.Classify(ctx, description, meta)
	if err != nil {
		s.logger.Warn("deferred re-score failed",
			zap.String("alertId", alertID), zap.Error(err))
		return
	}

	current, err := s.store.FindByID(ctx, alertID)
	if err != nil {
		return
	}
	if current.Status.Terminal() || result.Confidence == current.Confidence {
		return
	}

	err = s.store.UpdateScore(ctx, alertID, result.Confidence, result.Status, result.Priority, result.Explanation)
	if err != nil {
		s.logger.Warn("failed to store re-score",
			zap.String("alertId", alertID), zap.Error(err))
		return
	}

	updated, err := s.store.FindByID(ctx, alertID)
	if err != nil {
		return
	}
	s.cache.Set(alertID, *updated, gocache.DefaultExpiration)
	if updated.Confidence >= PublishThreshold {
		s.router.EmitToRole(realtime.RoleDashboard, realtime.EventReportUpdate, updated)
	}
}

// List returns alerts for the dashboard view.
func (s *AlertService) List(ctx context.Context, filter store.Filter) ([]models.Alert, int64, error) {
	return s.store.List(ctx, filter)
}

// Get fetches a single alert by id, preferring the cache.
func (s *AlertService) Get(ctx context.Context, alertID string) (*models.Alert, error) {
	if cached, ok := s.cache.Get(alertID); ok {
		if alert, ok := cached.(models.Alert); ok {
			return &alert, nil
		}
	}
	return s.store.FindByID(ctx, alertID)
}

// UpdateStatus applies a dashboard-issued transition. Terminal records reject
// further updates; the status-change event goes to the dashboard room.
func (s *AlertService) UpdateStatus(ctx context.Context, alertID string, update store.StatusUpdate) (*models.Alert, error) {
	alert, err := s.store.UpdateStatus(ctx, alertID, update)
	if err != nil {
		return nil, err
	}

	if alert.Status.Terminal() {
		s.cache.Delete(alertID)
	} else {
		s.cache.Set(alertID, *alert, gocache.DefaultExpiration)
	}

	s.router.EmitToRole(realtime.RoleDashboard, realtime.EventReportStatusUpdated, map[string]interface{}{
		"alertId":    alert.AlertID,
		"status":     alert.Status,
		"resolvedBy": alert.ResolvedBy,
		"resolvedAt": alert.ResolvedAt,
	})

	return alert, nil
}

// ConfirmReal upgrades a report to verified after two distinct peers voted
// it real, and notifies both audiences.
func (s *AlertService) ConfirmReal(ctx context.Context, alertID string) (*models.Alert, error) {
	current, err := s.store.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() || current.Status == models.StatusVerified {
		return current, nil
	}

	alert, err := s.store.UpdateStatus(ctx, alertID, store.StatusUpdate{Status: models.StatusVerified})
	if err != nil {
		return nil, err
	}
	s.cache.Set(alertID, *alert, gocache.DefaultExpiration)

	s.router.EmitToRole(realtime.RoleDashboard, realtime.EventReportUpdate, alert)
	s.router.EmitToAll(realtime.EventFeedbackResponse, map[string]interface{}{
		"reportId":      alert.AlertID,
		"confirmedReal": true,
	})
	return alert, nil
}

// Snapshot returns the initial dashboard batch: the default actionable view.
func (s *AlertService) Snapshot(ctx context.Context) ([]models.Alert, int64, error) {
	return s.store.List(ctx, store.DefaultFilter())
}

// ActiveCount reports the cached active-alert count for the health endpoint.
func (s *AlertService) ActiveCount() int {
	return s.cache.ItemCount()
}
