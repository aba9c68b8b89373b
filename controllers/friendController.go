package controllers

import (
	"context"
	"net/http"
	"time"

	"safezonex-be/config"
	"safezonex-be/models"
	"safezonex-be/realtime"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AddFriend creates a friendship by email lookup. Both directions are
// inserted so either side sees the other in their list.
func AddFriend(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userCollection := config.GetCollection("users")
	friendCollection := config.GetCollection("friends")

	var me models.User
	if err := userCollection.FindOne(ctx, bson.M{"userId": userID.(string)}).Decode(&me); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var friend models.User
	if err := userCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&friend); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "No user with that email"})
		} else {
			logger.Error("friend lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}
	if friend.UserID == me.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself as a friend"})
		return
	}

	now := time.Now()
	rows := []interface{}{
		models.Friend{UserID: me.UserID, FriendID: friend.UserID, FriendName: friend.Name, FriendEmail: friend.Email, AddedAt: now},
		models.Friend{UserID: friend.UserID, FriendID: me.UserID, FriendName: me.Name, FriendEmail: me.Email, AddedAt: now},
	}
	if _, err := friendCollection.InsertMany(ctx, rows); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already friends"})
			return
		}
		logger.Error("failed to insert friendship", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"friendId":   friend.UserID,
		"friendName": friend.Name,
		"email":      friend.Email,
	})
}

// ListFriends returns the user's friends with live presence: online if
// active inside the recency window, otherwise a bucketed last-seen label.
func ListFriends(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	friendCollection := config.GetCollection("friends")
	cursor, err := friendCollection.Find(ctx, bson.M{"userId": userID.(string)})
	if err != nil {
		logger.Error("failed to list friends", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve friends"})
		return
	}
	defer cursor.Close(ctx)

	var friends []models.Friend
	if err := cursor.All(ctx, &friends); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode friends"})
		return
	}

	type friendView struct {
		FriendID   string `json:"friendId"`
		FriendName string `json:"friendName"`
		Email      string `json:"email"`
		Online     bool   `json:"online"`
		LastSeen   string `json:"lastSeen,omitempty"`
	}

	views := make([]friendView, 0, len(friends))
	for _, f := range friends {
		view := friendView{
			FriendID:   f.FriendID,
			FriendName: f.FriendName,
			Email:      f.FriendEmail,
			Online:     hub.IsOnline(f.FriendID),
		}
		if !view.Online {
			if last, ok := hub.LastSeen(f.FriendID); ok {
				view.LastSeen = realtime.RelativeLastSeen(last)
			} else {
				// Fall back to the persisted lastSeen for users with no
				// presence entry since the process started.
				var u models.User
				if err := config.GetCollection("users").FindOne(ctx, bson.M{"userId": f.FriendID}).Decode(&u); err == nil {
					view.LastSeen = realtime.RelativeLastSeen(u.LastSeen)
				}
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"friends": views})
}
