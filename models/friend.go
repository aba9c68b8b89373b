package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Friend links two users. Rows are stored one-directional; adding a friend
// creates the reverse row as well.
type Friend struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID      string             `bson:"userId" json:"userId"`
	FriendID    string             `bson:"friendId" json:"friendId"`
	FriendName  string             `bson:"friendName" json:"friendName"`
	FriendEmail string             `bson:"friendEmail" json:"friendEmail"`
	AddedAt     time.Time          `bson:"addedAt" json:"addedAt"`
}

// EnsureFriendIndex creates a unique compound index for (userId, friendId)
// so the same friendship cannot be inserted twice.
func EnsureFriendIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "friendId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
