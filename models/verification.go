package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VerificationCode is a 6-digit numeric code with a fixed expiry and a
// max-attempt counter. Expiry is checked lazily at verification time; the
// TTL index only garbage-collects stale rows.
type VerificationCode struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email       string             `bson:"email" json:"email"`
	Code        string             `bson:"code" json:"-"`
	Purpose     string             `bson:"purpose" json:"purpose"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expiresAt"`
	Attempts    int                `bson:"attempts" json:"attempts"`
	MaxAttempts int                `bson:"maxAttempts" json:"maxAttempts"`
	IsUsed      bool               `bson:"isUsed" json:"isUsed"`
	UsedAt      *time.Time         `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// EnsureVerificationCodeIndex sets up TTL cleanup on expiresAt.
func EnsureVerificationCodeIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(3600),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
