package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageLocation MessageType = "location"
	MessageSystem   MessageType = "system"
)

// Message is a direct chat message between two users
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	MessageID   string             `bson:"messageId" json:"messageId"`
	SenderID    string             `bson:"senderId" json:"senderId"`
	RecipientID string             `bson:"recipientId" json:"recipientId"`
	SenderName  string             `bson:"senderName" json:"senderName"`
	Message     string             `bson:"message" json:"message"`
	MessageType MessageType        `bson:"messageType" json:"messageType"`
	IsRead      bool               `bson:"isRead" json:"isRead"`
	ReadAt      *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
