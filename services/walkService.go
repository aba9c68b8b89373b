package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"safezonex-be/models"
	"safezonex-be/realtime"
	"safezonex-be/store"
)

var (
	// ErrNotParticipant signals a walk operation by a user who is neither
	// the requester nor the matched partner.
	ErrNotParticipant = errors.New("user is not part of the walk session")
	// ErrOwnRequest signals a requester trying to accept their own request.
	ErrOwnRequest = errors.New("cannot accept your own walk request")
)

// WalkService owns the walking-partner lifecycle: a student requests an
// escort, a peer claims it (first accept wins), both relay their position to
// each other while matched, and either side ends the session.
type WalkService struct {
	store  store.WalkStore
	router Emitter
	logger *zap.Logger
}

func NewWalkService(st store.WalkStore, router Emitter, logger *zap.Logger) *WalkService {
	return &WalkService{store: st, router: router, logger: logger}
}

// WalkRequestInput describes an inbound walking-partner request.
type WalkRequestInput struct {
	RequesterID   string
	RequesterName string
	StartLocation models.Location
	EndLocation   models.Location
}

// Request persists a pending session and notifies every mobile peer. The
// payload carries the requester id so the requester's own devices can filter
// the broadcast out.
func (s *WalkService) Request(ctx context.Context, input WalkRequestInput) (*models.WalkSession, error) {
	session := &models.WalkSession{
		SessionID:     uuid.NewString(),
		RequesterID:   input.RequesterID,
		RequesterName: input.RequesterName,
		Status:        models.WalkPending,
		StartLocation: input.StartLocation,
		EndLocation:   input.EndLocation,
	}
	if err := s.store.Create(ctx, session); err != nil {
		s.logger.Error("failed to persist walk session",
			zap.String("requesterId", input.RequesterID), zap.Error(err))
		return nil, err
	}

	s.router.EmitToRole(realtime.RoleMobile, realtime.EventPartnerRequest, map[string]interface{}{
		"sessionId":     session.SessionID,
		"requesterId":   session.RequesterID,
		"requesterName": session.RequesterName,
		"startLocation": session.StartLocation,
		"endLocation":   session.EndLocation,
	})

	s.logger.Info("walk partner requested",
		zap.String("sessionId", session.SessionID),
		zap.String("requesterId", session.RequesterID))
	return session, nil
}

// Accept claims a pending session for a partner and tells the requester.
// Only the first accept succeeds; later ones see the session already closed.
func (s *WalkService) Accept(ctx context.Context, sessionID, partnerID, partnerName string) (*models.WalkSession, error) {
	current, err := s.store.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.RequesterID == partnerID {
		return nil, ErrOwnRequest
	}

	session, err := s.store.Match(ctx, sessionID, partnerID, partnerName)
	if err != nil {
		return nil, err
	}

	s.router.EmitToUser(session.RequesterID, realtime.EventPartnerMatched, map[string]interface{}{
		"sessionId":   session.SessionID,
		"partnerId":   session.PartnerID,
		"partnerName": session.PartnerName,
	})

	s.logger.Info("walk partner matched",
		zap.String("sessionId", session.SessionID),
		zap.String("partnerId", partnerID))
	return session, nil
}

// UpdateLocation records a participant's position and relays it to the other
// party's personal room.
func (s *WalkService) UpdateLocation(ctx context.Context, sessionID, userID string, lat, lng float64) error {
	session, err := s.store.FindBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	other, err := counterpart(session, userID)
	if err != nil {
		return err
	}

	loc := models.Location{Latitude: lat, Longitude: lng}
	if err := s.store.UpdateLocation(ctx, sessionID, loc); err != nil {
		return err
	}

	s.router.EmitToUser(other, realtime.EventPartnerLocation, map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
		"latitude":  lat,
		"longitude": lng,
	})
	return nil
}

// End closes the session as completed or cancelled and tells the other party,
// if one was ever matched.
func (s *WalkService) End(ctx context.Context, sessionID, userID string, completed bool) error {
	current, err := s.store.FindBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := counterpart(current, userID); err != nil && err != errNoPartner {
		return err
	}

	status := models.WalkCancelled
	if completed {
		status = models.WalkCompleted
	}
	session, err := s.store.End(ctx, sessionID, status)
	if err != nil {
		return err
	}

	if other, err := counterpart(session, userID); err == nil {
		s.router.EmitToUser(other, realtime.EventWalkSessionEnded, map[string]interface{}{
			"sessionId": session.SessionID,
			"status":    session.Status,
		})
	}

	s.logger.Info("walk session ended",
		zap.String("sessionId", session.SessionID),
		zap.String("status", string(session.Status)))
	return nil
}

var errNoPartner = errors.New("walk session has no matched partner")

// counterpart resolves the other participant of a session, rejecting users
// who are part of neither side.
func counterpart(session *models.WalkSession, userID string) (string, error) {
	switch userID {
	case session.RequesterID:
		if session.PartnerID == "" {
			return "", errNoPartner
		}
		return session.PartnerID, nil
	case session.PartnerID:
		if userID == "" {
			return "", ErrNotParticipant
		}
		return session.RequesterID, nil
	default:
		return "", ErrNotParticipant
	}
}
