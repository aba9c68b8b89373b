package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"safezonex-be/models"
	"safezonex-be/realtime"
)

var (
	// ErrNoActiveSOS signals an operation against a user with no live SOS.
	ErrNoActiveSOS = errors.New("no active SOS for user")
	// ErrSOSAlreadyActive signals a raise while one is already live.
	ErrSOSAlreadyActive = errors.New("user already has an active SOS")
	// ErrAnonymousAck signals an acknowledgment from a connection that never
	// registered a user identity.
	ErrAnonymousAck = errors.New("acknowledgment requires a registered user")
)

// SOSService owns the ephemeral SOS lifecycle:
// raised -> acknowledged* -> ended. State lives only in the in-memory cache,
// keyed by the originating user id (one active SOS per user), and is gone on
// process restart by design.
type SOSService struct {
	cache  *gocache.Cache
	router Emitter
	logger *zap.Logger
}

func NewSOSService(cache *gocache.Cache, router Emitter, logger *zap.Logger) *SOSService {
	return &SOSService{cache: cache, router: router, logger: logger}
}

// RaiseInput describes an inbound SOS signal.
type RaiseInput struct {
	UserID    string
	UserName  string
	Latitude  float64
	Longitude float64
	Message   string
}

// Raise creates the SOS and broadcasts it to all peers and the dashboard.
// The double emission is deliberate redundancy for availability; the payload
// carries the SOS id so consumers can dedupe.
func (s *SOSService) Raise(input RaiseInput) (*models.SOSEvent, error) {
	if _, exists := s.cache.Get(sosKey(input.UserID)); exists {
		return nil, ErrSOSAlreadyActive
	}

	now := time.Now()
	event := &models.SOSEvent{
		SOSID:     uuid.NewString(),
		UserID:    input.UserID,
		UserName:  input.UserName,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Message:   input.Message,
		Status:    models.SOSActive,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.cache.Set(sosKey(input.UserID), *event, gocache.NoExpiration)

	payload := sosPayload(event)
	s.router.EmitToAll(realtime.EventFriendSOSAlert, payload)
	s.router.EmitToRole(realtime.RoleDashboard, realtime.EventSecuritySOSAlert, payload)

	s.logger.Info("SOS raised",
		zap.String("sosId", event.SOSID),
		zap.String("userId", event.UserID))
	return event, nil
}

// UpdateLocation moves an active SOS and fans the position out to both
// audiences.
func (s *SOSService) UpdateLocation(userID string, lat, lng float64) error {
	event, ok := s.get(userID)
	if !ok {
		return ErrNoActiveSOS
	}

	event.Latitude = lat
	event.Longitude = lng
	event.UpdatedAt = time.Now()
	s.cache.Set(sosKey(userID), *event, gocache.NoExpiration)

	payload := map[string]interface{}{
		"sosId":     event.SOSID,
		"userId":    event.UserID,
		"userName":  event.UserName,
		"latitude":  lat,
		"longitude": lng,
	}
	s.router.EmitToAll(realtime.EventFriendLocation, payload)
	s.router.EmitToRole(realtime.RoleDashboard, realtime.EventSOSLocation, payload)
	return nil
}

// Acknowledge records a friend's acknowledgment. Repeat acks from the same
// friend collapse into one entry; the notification goes to the originator
// only. Status stays active regardless of ack count.
func (s *SOSService) Acknowledge(originUserID, friendID, friendName string) (*models.SOSEvent, error) {
	if friendID == "" {
		return nil, ErrAnonymousAck
	}
	event, ok := s.get(originUserID)
	if !ok {
		return nil, ErrNoActiveSOS
	}

	already := false
	for _, ack := range event.Acks {
		if ack.FriendID == friendID {
			already = true
			break
		}
	}
	if !already {
		event.Acks = append(event.Acks, models.SOSAck{
			FriendID:   friendID,
			FriendName: friendName,
			AckedAt:    time.Now(),
		})
		event.UpdatedAt = time.Now()
		s.cache.Set(sosKey(originUserID), *event, gocache.NoExpiration)
	}

	s.router.EmitToUser(originUserID, realtime.EventSOSAcknowledged, map[string]interface{}{
		"sosId":      event.SOSID,
		"friendId":   friendID,
		"friendName": friendName,
		"ackCount":   len(event.Acks),
	})
	return event, nil
}

// End is the only terminal SOS transition. It clears the event and its
// acknowledgment bookkeeping from the cache and tells every peer.
func (s *SOSService) End(userID string) error {
	event, ok := s.get(userID)
	if !ok {
		return ErrNoActiveSOS
	}

	s.cache.Delete(sosKey(userID))

	s.router.EmitToAll(realtime.EventFriendSOSEnded, map[string]interface{}{
		"sosId":  event.SOSID,
		"userId": event.UserID,
	})

	s.logger.Info("SOS ended",
		zap.String("sosId", event.SOSID),
		zap.String("userId", userID))
	return nil
}

// Active returns the live SOS for a user, if any.
func (s *SOSService) Active(userID string) (*models.SOSEvent, bool) {
	return s.get(userID)
}

// ListActive returns every live SOS, for the dashboard join snapshot.
func (s *SOSService) ListActive() []models.SOSEvent {
	items := s.cache.Items()
	out := make([]models.SOSEvent, 0, len(items))
	for _, item := range items {
		if event, ok := item.Object.(models.SOSEvent); ok {
			out = append(out, event)
		}
	}
	return out
}

func (s *SOSService) get(userID string) (*models.SOSEvent, bool) {
	cached, ok := s.cache.Get(sosKey(userID))
	if !ok {
		return nil, false
	}
	event, ok := cached.(models.SOSEvent)
	if !ok {
		return nil, false
	}
	return &event, true
}

func sosKey(userID string) string {
	return "sos:" + userID
}

func sosPayload(event *models.SOSEvent) map[string]interface{} {
	return map[string]interface{}{
		"sosId":     event.SOSID,
		"userId":    event.UserID,
		"userName":  event.UserName,
		"latitude":  event.Latitude,
		"longitude": event.Longitude,
		"message":   event.Message,
		"status":    event.Status,
		"startedAt": event.StartedAt,
	}
}
