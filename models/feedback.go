package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FeedbackVote string

const (
	VoteReal FeedbackVote = "real"
	VoteFake FeedbackVote = "fake"
)

// Feedback is a peer's real/fake vote on a report. Two distinct users voting
// "real" upgrades the report to confirmed real.
type Feedback struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ReportID      string             `bson:"reportId" json:"reportId"`
	ReportText    string             `bson:"reportText" json:"reportText"`
	Feedback      FeedbackVote       `bson:"feedback" json:"feedback"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	UserID        string             `bson:"userId" json:"userId"`
	ConfirmedReal bool               `bson:"confirmedReal" json:"confirmedReal"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}

// EnsureFeedbackIndex creates a unique compound index for (reportId, userId)
// so a voter counts once per report.
func EnsureFeedbackIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "reportId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
