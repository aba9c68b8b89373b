package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"safezonex-be/models"
)

// MongoAlertStore implements AlertStore over a MongoDB collection.
type MongoAlertStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongoAlertStore(collection *mongo.Collection, logger *zap.Logger) *MongoAlertStore {
	return &MongoAlertStore{collection: collection, logger: logger}
}

// EnsureIndexes creates the query indexes the dashboard list depends on.
func (s *MongoAlertStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "alertId", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (s *MongoAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, alert)
	return err
}

func (s *MongoAlertStore) FindByID(ctx context.Context, alertID string) (*models.Alert, error) {
	var alert models.Alert
	err := s.collection.FindOne(ctx, bson.M{"alertId": alertID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	alert.Status = alert.Status.Canonical()
	return &alert, nil
}

func (s *MongoAlertStore) List(ctx context.Context, filter Filter) ([]models.Alert, int64, error) {
	query := bson.M{}

	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": withLegacyAliases(filter.Statuses)}
	} else if len(filter.ExcludeStatuses) > 0 {
		query["status"] = bson.M{"$nin": filter.ExcludeStatuses}
	}
	if filter.MinConfidence > 0 {
		query["confidence"] = bson.M{"$gte": filter.MinConfidence}
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		findOptions.SetSkip(int64(filter.Offset))
	}

	cursor, err := s.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, 0, err
	}
	for i := range alerts {
		alerts[i].Status = alerts[i].Status.Canonical()
	}
	return alerts, total, nil
}

func (s *MongoAlertStore) UpdateStatus(ctx context.Context, alertID string, update StatusUpdate) (*models.Alert, error) {
	now := time.Now()
	set := bson.M{
		"status":    update.Status,
		"updatedAt": now,
	}
	if update.Status.Terminal() {
		set["resolvedAt"] = now
		set["resolution"] = update.Resolution
		set["resolvedBy"] = update.ResolvedBy
	}

	result := s.collection.FindOneAndUpdate(ctx,
		activeAlertFilter(alertID),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var alert models.Alert
	if err := result.Decode(&alert); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, s.classifyMiss(ctx, alertID)
		}
		return nil, err
	}
	alert.Status = alert.Status.Canonical()
	return &alert, nil
}

func (s *MongoAlertStore) UpdateScore(ctx context.Context, alertID string, confidence int, status models.AlertStatus, priority models.AlertPriority, explanation string) error {
	result, err := s.collection.UpdateOne(ctx,
		activeAlertFilter(alertID),
		bson.M{"$set": bson.M{
			"confidence":  confidence,
			"status":      status,
			"priority":    priority,
			"explanation": explanation,
			"updatedAt":   time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return s.classifyMiss(ctx, alertID)
	}
	return nil
}

// activeAlertFilter matches the alert only while it is non-terminal, so the
// terminal guard and the write are a single atomic operation: a resolve
// landing between a read and this write makes the write a no-op instead of
// mutating a closed record. No legacy status value maps to a terminal one, so
// matching the canonical pair is sufficient.
func activeAlertFilter(alertID string) bson.M {
	return bson.M{
		"alertId": alertID,
		"status": bson.M{"$nin": []models.AlertStatus{
			models.StatusResolved,
			models.StatusFalseAlarm,
		}},
	}
}

// classifyMiss explains a guarded update that matched nothing: the record is
// either gone or already terminal. Terminal states are absorbing, so a
// non-terminal record can never slip through the guard unnoticed.
func (s *MongoAlertStore) classifyMiss(ctx context.Context, alertID string) error {
	current, err := s.FindByID(ctx, alertID)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return ErrTerminalStatus
	}
	return ErrNotFound
}

// withLegacyAliases widens a status inclusion set with the pre-canonical
// values still present on old rows, so filters keep matching them.
func withLegacyAliases(statuses []models.AlertStatus) []models.AlertStatus {
	out := make([]models.AlertStatus, 0, len(statuses)+2)
	for _, s := range statuses {
		out = append(out, s)
		switch s {
		case models.StatusNeedsReview:
			out = append(out, "active", "pending_review")
		case models.StatusVerified:
			out = append(out, "real")
		}
	}
	return out
}
