package controllers

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"safezonex-be/config"
	"safezonex-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	codeExpiry         = 10 * time.Minute
	codeMaxAttempts    = 3
	defaultCodePurpose = "email_verification"
)

// pendingCodeFilter selects the single outstanding code for an email and
// purpose. Issue and verify must key by the same pair, or a user with codes
// pending for two purposes would have an arbitrary one checked.
func pendingCodeFilter(email, purpose string) bson.M {
	if purpose == "" {
		purpose = defaultCodePurpose
	}
	return bson.M{"email": email, "purpose": purpose, "isUsed": false}
}

// RequestVerificationCode issues a fresh 6-digit code for an email,
// superseding any earlier unused code for the same purpose.
func RequestVerificationCode(c *gin.Context) {
	var input struct {
		Email   string `json:"email" binding:"required,email"`
		Purpose string `json:"purpose,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	purpose := input.Purpose
	if purpose == "" {
		purpose = defaultCodePurpose
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	record := models.VerificationCode{
		Email:       input.Email,
		Code:        code,
		Purpose:     purpose,
		ExpiresAt:   time.Now().Add(codeExpiry),
		MaxAttempts: codeMaxAttempts,
		CreatedAt:   time.Now(),
	}

	codeCollection := config.GetCollection("verification_codes")
	// Replace any outstanding code for this email+purpose.
	opts := options.Replace().SetUpsert(true)
	if _, err := codeCollection.ReplaceOne(ctx,
		pendingCodeFilter(input.Email, purpose),
		record, opts,
	); err != nil {
		logger.Error("failed to store verification code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue code"})
		return
	}

	// Delivery (email/SMS) is an external concern; the code is logged at
	// debug for development.
	logger.Debug("verification code issued",
		zap.String("email", input.Email), zap.String("code", code))

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"expiresAt": record.ExpiresAt,
	})
}

// VerifyCode checks a submitted code. Expiry is evaluated lazily against the
// stored timestamp; attempts beyond the max lock the code out.
func VerifyCode(c *gin.Context) {
	var input struct {
		Email   string `json:"email" binding:"required,email"`
		Code    string `json:"code" binding:"required,len=6"`
		Purpose string `json:"purpose,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	codeCollection := config.GetCollection("verification_codes")

	var record models.VerificationCode
	err := codeCollection.FindOne(ctx, pendingCodeFilter(input.Email, input.Purpose)).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "No pending verification code"})
		} else {
			logger.Error("failed to fetch verification code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}

	if record.Attempts >= record.MaxAttempts {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, request a new code"})
		return
	}
	if time.Now().After(record.ExpiresAt) {
		c.JSON(http.StatusGone, gin.H{"error": "Code expired, request a new one"})
		return
	}

	if record.Code != input.Code {
		attempts := record.Attempts + 1
		_, _ = codeCollection.UpdateOne(ctx,
			bson.M{"_id": record.ID},
			bson.M{"$set": bson.M{"attempts": attempts}},
		)
		if attempts >= record.MaxAttempts {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, request a new code"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Incorrect code",
			"attemptsRemaining": record.MaxAttempts - attempts,
		})
		return
	}

	now := time.Now()
	_, err = codeCollection.UpdateOne(ctx,
		bson.M{"_id": record.ID},
		bson.M{"$set": bson.M{"isUsed": true, "usedAt": now}},
	)
	if err != nil {
		logger.Error("failed to mark code used", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "verified": true})
}
