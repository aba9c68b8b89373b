package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"safezonex-be/models"
	"safezonex-be/services"
	"safezonex-be/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitAlert handles a new incident report submission
func SubmitAlert(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		UserName       string   `json:"userName" binding:"required,max=100"`
		UserPhone      string   `json:"userPhone" binding:"required,max=30"`
		Description    string   `json:"description" binding:"max=2000"`
		Latitude       *float64 `json:"latitude" binding:"required"`
		Longitude      *float64 `json:"longitude" binding:"required"`
		Address        string   `json:"address,omitempty"`
		Campus         string   `json:"campus,omitempty"`
		Category       string   `json:"category,omitempty"`
		EvidenceImages []string `json:"evidenceImages,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if *input.Latitude < -90 || *input.Latitude > 90 || *input.Longitude < -180 || *input.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed coordinates"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alert, err := alertService.Submit(ctx, services.SubmitInput{
		UserID:         userID.(string),
		UserName:       input.UserName,
		UserPhone:      input.UserPhone,
		Description:    input.Description,
		Latitude:       *input.Latitude,
		Longitude:      *input.Longitude,
		Address:        input.Address,
		Campus:         input.Campus,
		Category:       models.AlertCategory(input.Category),
		EvidenceImages: input.EvidenceImages,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			// A distinguished rejection, not a server fault: the submitter
			// already reported this within the dedup window.
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"reason":  "duplicate_submission",
				"message": "This report was already submitted moments ago",
			})
			return
		}
		logger.Error("alert submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"alert":   alert,
	})
}

// GetAllAlerts retrieves alerts with filtering and pagination. The default
// view is the dashboard's actionable list: terminal records excluded.
func GetAllAlerts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := store.DefaultFilter()
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	if statusParam := c.Query("status"); statusParam != "" && statusParam != "all" {
		var statuses []models.AlertStatus
		for _, raw := range strings.Split(statusParam, ",") {
			status := models.AlertStatus(strings.TrimSpace(raw))
			if !models.ValidStatuses[status.Canonical()] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
				return
			}
			statuses = append(statuses, status.Canonical())
		}
		filter.Statuses = statuses
		filter.ExcludeStatuses = nil
	}

	if minConf := c.Query("minConfidence"); minConf != "" {
		v, err := strconv.Atoi(minConf)
		if err != nil || v < 0 || v > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minConfidence"})
			return
		}
		filter.MinConfidence = v
	}

	alerts, total, err := alertService.List(ctx, filter)
	if err != nil {
		logger.Error("failed to list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": totalPages,
		},
	})
}

// GetAlert retrieves an alert by its ID
func GetAlert(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alert, err := alertService.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		} else {
			logger.Error("failed to fetch alert", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alert"})
		}
		return
	}

	c.JSON(http.StatusOK, alert)
}

// UpdateAlertStatus applies a dashboard-issued status transition
func UpdateAlertStatus(c *gin.Context) {
	var input struct {
		Status     string `json:"status" binding:"required"`
		Resolution string `json:"resolution,omitempty"`
		ResolvedBy string `json:"resolvedBy,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.AlertStatus(input.Status).Canonical()
	if !models.ValidStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alert, err := alertService.UpdateStatus(ctx, c.Param("id"), store.StatusUpdate{
		Status:     status,
		Resolution: input.Resolution,
		ResolvedBy: input.ResolvedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		case errors.Is(err, store.ErrTerminalStatus):
			c.JSON(http.StatusConflict, gin.H{"error": "Alert is already resolved or marked false alarm"})
		default:
			logger.Error("failed to update alert status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		}
		return
	}

	c.JSON(http.StatusOK, alert)
}
