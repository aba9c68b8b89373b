package controllers

import (
	"context"
	"net/http"
	"time"

	"safezonex-be/config"
	"safezonex-be/models"
	"safezonex-be/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// saveAndDeliverMessage persists a direct message and emits it to the
// recipient's personal room. Shared by the REST endpoint and the websocket
// chat_message handler.
func saveAndDeliverMessage(ctx context.Context, senderID, senderName, recipientID, text string, msgType models.MessageType) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageText
	}
	msg := &models.Message{
		MessageID:   uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		SenderName:  senderName,
		Message:     text,
		MessageType: msgType,
		Timestamp:   time.Now(),
	}

	messageCollection := config.GetCollection("messages")
	if _, err := messageCollection.InsertOne(ctx, msg); err != nil {
		return nil, err
	}

	router.EmitToUser(recipientID, realtime.EventNewMessage, msg)
	return msg, nil
}

// SendMessage handles a direct chat message over REST
func SendMessage(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		RecipientID string `json:"recipientId" binding:"required"`
		SenderName  string `json:"senderName" binding:"required,max=100"`
		Message     string `json:"message" binding:"required,max=2000"`
		MessageType string `json:"messageType,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := saveAndDeliverMessage(ctx, userID.(string), input.SenderName, input.RecipientID, input.Message, models.MessageType(input.MessageType))
	if err != nil {
		logger.Error("failed to send message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetConversation lists the messages between the caller and another user,
// newest first.
func GetConversation(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	otherID := c.Param("userId")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	messageCollection := config.GetCollection("messages")
	filter := bson.M{"$or": []bson.M{
		{"senderId": userID.(string), "recipientId": otherID},
		{"senderId": otherID, "recipientId": userID.(string)},
	}}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(100)

	cursor, err := messageCollection.Find(ctx, filter, findOptions)
	if err != nil {
		logger.Error("failed to fetch conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode messages"})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkMessagesRead marks every unread message from the given sender to the
// caller as read.
func MarkMessagesRead(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	senderID := c.Param("userId")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	messageCollection := config.GetCollection("messages")
	now := time.Now()
	result, err := messageCollection.UpdateMany(ctx,
		bson.M{"senderId": senderID, "recipientId": userID.(string), "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": now}},
	)
	if err != nil {
		logger.Error("failed to mark messages read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": result.ModifiedCount})
}
