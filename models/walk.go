package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WalkStatus enum. pending until a partner accepts, matched while the walk is
// underway, then completed or cancelled.
type WalkStatus string

const (
	WalkPending   WalkStatus = "pending"
	WalkMatched   WalkStatus = "matched"
	WalkCompleted WalkStatus = "completed"
	WalkCancelled WalkStatus = "cancelled"
)

// Terminal walk sessions accept no further matching, tracking, or transitions.
func (s WalkStatus) Terminal() bool {
	return s == WalkCompleted || s == WalkCancelled
}

// WalkSession is a walking-partner escort request: one student asks a peer to
// walk with them from a start point to a destination, and both parties relay
// their position to each other while the session is live.
type WalkSession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID     string             `bson:"sessionId" json:"sessionId"`
	RequesterID   string             `bson:"requesterId" json:"requesterId"`
	RequesterName string             `bson:"requesterName" json:"requesterName"`
	PartnerID     string             `bson:"partnerId,omitempty" json:"partnerId,omitempty"`
	PartnerName   string             `bson:"partnerName,omitempty" json:"partnerName,omitempty"`
	Status        WalkStatus         `bson:"status" json:"status"`
	StartLocation Location           `bson:"startLocation" json:"startLocation"`
	EndLocation   Location           `bson:"endLocation" json:"endLocation"`
	LastLocation  *Location          `bson:"lastLocation,omitempty" json:"lastLocation,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EnsureWalkSessionIndexes creates the lookup indexes for session history per
// participant and the open-request scan.
func EnsureWalkSessionIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}},
		{Keys: bson.D{{Key: "requesterId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "partnerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}
