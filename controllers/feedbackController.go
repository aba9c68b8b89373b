package controllers

import (
	"context"
	"net/http"
	"time"

	"safezonex-be/config"
	"safezonex-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SubmitFeedback records a peer's real/fake vote on a report. Two distinct
// users voting real upgrades the report to confirmed real.
func SubmitFeedback(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		ReportID   string `json:"reportId" binding:"required"`
		ReportText string `json:"reportText" binding:"required,max=2000"`
		Feedback   string `json:"feedback" binding:"required,oneof=real fake"`
		Location   string `json:"location,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feedbackCollection := config.GetCollection("feedback")
	fb := models.Feedback{
		ReportID:   input.ReportID,
		ReportText: input.ReportText,
		Feedback:   models.FeedbackVote(input.Feedback),
		Location:   input.Location,
		UserID:     userID.(string),
		Timestamp:  time.Now(),
	}
	if _, err := feedbackCollection.InsertOne(ctx, fb); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already voted on this report"})
			return
		}
		logger.Error("failed to insert feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		return
	}

	confirmed := false
	if fb.Feedback == models.VoteReal {
		var err error
		confirmed, err = confirmedReal(ctx, input.ReportID)
		if err != nil {
			logger.Warn("failed to check confirmation quorum", zap.Error(err))
		}
		if confirmed {
			if _, err := feedbackCollection.UpdateMany(ctx,
				bson.M{"reportId": input.ReportID},
				bson.M{"$set": bson.M{"confirmedReal": true}},
			); err != nil {
				logger.Warn("failed to flag feedback confirmed", zap.Error(err))
			}
			if _, err := alertService.ConfirmReal(ctx, input.ReportID); err != nil {
				logger.Warn("failed to upgrade confirmed report",
					zap.String("reportId", input.ReportID), zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"confirmedReal": confirmed,
	})
}

// confirmedReal reports whether at least two distinct users voted real.
func confirmedReal(ctx context.Context, reportID string) (bool, error) {
	feedbackCollection := config.GetCollection("feedback")
	voters, err := feedbackCollection.Distinct(ctx, "userId", bson.M{
		"reportId": reportID,
		"feedback": models.VoteReal,
	})
	if err != nil {
		return false, err
	}
	return len(voters) >= 2, nil
}
