package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"safezonex-be/models"
)

// ErrSessionClosed signals a match or update against a walk session that is
// already matched or in a terminal status.
var ErrSessionClosed = errors.New("walk session already matched or closed")

// WalkStore persists walking-partner sessions. Like AlertStore, transition
// guards live inside the write itself so concurrent accepts or a late
// location update cannot mutate a closed session.
type WalkStore interface {
	Create(ctx context.Context, session *models.WalkSession) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.WalkSession, error)
	Match(ctx context.Context, sessionID, partnerID, partnerName string) (*models.WalkSession, error)
	UpdateLocation(ctx context.Context, sessionID string, loc models.Location) error
	End(ctx context.Context, sessionID string, status models.WalkStatus) (*models.WalkSession, error)
}

// MongoWalkStore implements WalkStore over a MongoDB collection.
type MongoWalkStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongoWalkStore(collection *mongo.Collection, logger *zap.Logger) *MongoWalkStore {
	return &MongoWalkStore{collection: collection, logger: logger}
}

func (s *MongoWalkStore) Create(ctx context.Context, session *models.WalkSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, session)
	return err
}

func (s *MongoWalkStore) FindBySessionID(ctx context.Context, sessionID string) (*models.WalkSession, error) {
	var session models.WalkSession
	err := s.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Match claims a pending session for a partner. The pending-status filter
// makes the first accept win; any later accept matches nothing.
func (s *MongoWalkStore) Match(ctx context.Context, sessionID, partnerID, partnerName string) (*models.WalkSession, error) {
	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"sessionId": sessionID, "status": models.WalkPending},
		bson.M{"$set": bson.M{
			"partnerId":   partnerID,
			"partnerName": partnerName,
			"status":      models.WalkMatched,
			"updatedAt":   time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var session models.WalkSession
	if err := result.Decode(&session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, s.classifyWalkMiss(ctx, sessionID)
		}
		return nil, err
	}
	return &session, nil
}

func (s *MongoWalkStore) UpdateLocation(ctx context.Context, sessionID string, loc models.Location) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "status": models.WalkMatched},
		bson.M{"$set": bson.M{
			"lastLocation": loc,
			"updatedAt":    time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return s.classifyWalkMiss(ctx, sessionID)
	}
	return nil
}

func (s *MongoWalkStore) End(ctx context.Context, sessionID string, status models.WalkStatus) (*models.WalkSession, error) {
	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"sessionId": sessionID, "status": bson.M{"$nin": []models.WalkStatus{
			models.WalkCompleted,
			models.WalkCancelled,
		}}},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var session models.WalkSession
	if err := result.Decode(&session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, s.classifyWalkMiss(ctx, sessionID)
		}
		return nil, err
	}
	return &session, nil
}

func (s *MongoWalkStore) classifyWalkMiss(ctx context.Context, sessionID string) error {
	if _, err := s.FindBySessionID(ctx, sessionID); err != nil {
		return err
	}
	return ErrSessionClosed
}

// MemoryWalkStore is the in-memory WalkStore used by tests.
type MemoryWalkStore struct {
	mu       sync.RWMutex
	sessions map[string]models.WalkSession
}

func NewMemoryWalkStore() *MemoryWalkStore {
	return &MemoryWalkStore{sessions: make(map[string]models.WalkSession)}
}

func (s *MemoryWalkStore) Create(_ context.Context, session *models.WalkSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	s.sessions[session.SessionID] = *session
	return nil
}

func (s *MemoryWalkStore) FindBySessionID(_ context.Context, sessionID string) (*models.WalkSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *MemoryWalkStore) Match(_ context.Context, sessionID, partnerID, partnerName string) (*models.WalkSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if session.Status != models.WalkPending {
		return nil, ErrSessionClosed
	}
	session.PartnerID = partnerID
	session.PartnerName = partnerName
	session.Status = models.WalkMatched
	session.UpdatedAt = time.Now()
	s.sessions[sessionID] = session
	return &session, nil
}

func (s *MemoryWalkStore) UpdateLocation(_ context.Context, sessionID string, loc models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if session.Status != models.WalkMatched {
		return ErrSessionClosed
	}
	session.LastLocation = &loc
	session.UpdatedAt = time.Now()
	s.sessions[sessionID] = session
	return nil
}

func (s *MemoryWalkStore) End(_ context.Context, sessionID string, status models.WalkStatus) (*models.WalkSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if session.Status.Terminal() {
		return nil, ErrSessionClosed
	}
	session.Status = status
	session.UpdatedAt = time.Now()
	s.sessions[sessionID] = session
	return &session, nil
}

// Sessions returns every stored session newest-first, for test assertions.
func (s *MemoryWalkStore) Sessions() []models.WalkSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WalkSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
