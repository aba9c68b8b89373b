package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"safezonex-be/models"
	"safezonex-be/realtime"
	"safezonex-be/services"
	"safezonex-be/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware on the HTTP side.
		return true
	},
}

// HandleWebSocket upgrades the connection and hands it to the hub.
func HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.Add(conn)
	router.EmitToConn(client.ID, realtime.EventConnected, gin.H{
		"clientId": client.ID,
		"message":  "Connected to SafeZoneX server",
	})
}

// BindSocketHandlers wires the inbound websocket events to the lifecycle
// controllers. Called once from main after Setup.
func BindSocketHandlers() {
	hub.Handle(realtime.EventRegister, handleRegister)
	hub.Handle(realtime.EventJoinRoom, handleJoinRoom)
	hub.Handle(realtime.EventSOSAlert, handleSOSAlert)
	hub.Handle(realtime.EventSOSLocationIn, handleSOSLocation)
	hub.Handle(realtime.EventSOSAcknowledge, handleSOSAcknowledge)
	hub.Handle(realtime.EventSOSEnd, handleSOSEnd)
	hub.Handle(realtime.EventChatMessage, handleChatMessage)
	hub.Handle(realtime.EventWalkRequest, handleWalkRequest)
	hub.Handle(realtime.EventWalkResponse, handleWalkResponse)
	hub.Handle(realtime.EventLocationUpdate, handleLocationUpdate)
	hub.Handle(realtime.EventWalkEnd, handleWalkEnd)
	hub.Handle(realtime.EventActivity, func(c *realtime.Client, _ json.RawMessage) {
		hub.Touch(c.UserID)
	})
}

func handleRegister(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Malformed register payload"})
		return
	}

	role := realtime.RoleMobile
	if payload.Type == string(realtime.RoleDashboard) {
		role = realtime.RoleDashboard
	}
	if err := hub.Register(c.ID, role, payload.UserID); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Registration failed"})
		return
	}

	// A (re)joining dashboard gets the current actionable snapshot as a
	// distinct initial batch, not a live-update event.
	if role == realtime.RoleDashboard {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		alerts, total, err := alertService.Snapshot(ctx)
		if err != nil {
			logger.Error("failed to build dashboard snapshot", zap.Error(err))
		} else {
			router.EmitToConn(c.ID, realtime.EventInitialReports, gin.H{
				"alerts":    alerts,
				"count":     total,
				"activeSOS": sosService.ListActive(),
			})
		}
	}

	mobile, dashboard := hub.Counts()
	router.EmitToAll(realtime.EventConnectionUpdate, gin.H{
		"mobile": mobile,
		"web":    dashboard,
	})
}

func handleJoinRoom(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		return
	}
	hub.JoinRoom(c.ID, payload.Room)
}

func handleSOSAlert(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		UserID    string  `json:"userId"`
		UserName  string  `json:"userName"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Message   string  `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Malformed SOS payload"})
		return
	}
	if payload.UserID == "" {
		payload.UserID = c.UserID
	}

	if _, err := sosService.Raise(services.RaiseInput{
		UserID:    payload.UserID,
		UserName:  payload.UserName,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		Message:   payload.Message,
	}); err != nil {
		if err == services.ErrSOSAlreadyActive {
			router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "SOS already active"})
		}
		return
	}
}

func handleSOSLocation(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		UserID    string  `json:"userId"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if payload.UserID == "" {
		payload.UserID = c.UserID
	}
	if err := sosService.UpdateLocation(payload.UserID, payload.Latitude, payload.Longitude); err != nil {
		logger.Debug("location update without active SOS",
			zap.String("userId", payload.UserID))
	}
}

func handleSOSAcknowledge(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		SOSUserID  string `json:"sosUserId"`
		FriendName string `json:"friendName"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	// An unregistered connection has no identity to acknowledge with.
	if c.UserID == "" {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Register before acknowledging an SOS"})
		return
	}
	if _, err := sosService.Acknowledge(payload.SOSUserID, c.UserID, payload.FriendName); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "No active SOS to acknowledge"})
	}
}

func handleSOSEnd(c *realtime.Client, _ json.RawMessage) {
	if err := sosService.End(c.UserID); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "No active SOS to end"})
	}
}

func handleChatMessage(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		RecipientID string `json:"recipientId"`
		SenderName  string `json:"senderName"`
		Message     string `json:"message"`
		MessageType string `json:"messageType"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.RecipientID == "" || payload.Message == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := saveAndDeliverMessage(ctx, c.UserID, payload.SenderName, payload.RecipientID, payload.Message, models.MessageType(payload.MessageType)); err != nil {
		logger.Error("failed to deliver chat message", zap.Error(err))
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Failed to deliver message"})
	}
}

func handleWalkRequest(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		RequesterName string          `json:"requesterName"`
		StartLocation models.Location `json:"startLocation"`
		EndLocation   models.Location `json:"endLocation"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Malformed walk request"})
		return
	}
	if c.UserID == "" {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Register before requesting a walking partner"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := walkService.Request(ctx, services.WalkRequestInput{
		RequesterID:   c.UserID,
		RequesterName: payload.RequesterName,
		StartLocation: payload.StartLocation,
		EndLocation:   payload.EndLocation,
	}); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Failed to create walk request"})
	}
}

func handleWalkResponse(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		SessionID   string `json:"sessionId"`
		Accepted    bool   `json:"accepted"`
		PartnerName string `json:"partnerName"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		return
	}
	// Declines stay client-side; the request remains open for other peers.
	if !payload.Accepted {
		return
	}
	if c.UserID == "" {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Register before accepting a walk request"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := walkService.Accept(ctx, payload.SessionID, c.UserID, payload.PartnerName); err != nil {
		switch err {
		case store.ErrSessionClosed:
			router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Walk request already taken"})
		case services.ErrOwnRequest:
			router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Cannot accept your own request"})
		default:
			router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Failed to accept walk request"})
		}
	}
}

func handleLocationUpdate(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		SessionID string  `json:"sessionId"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := walkService.UpdateLocation(ctx, payload.SessionID, c.UserID, payload.Latitude, payload.Longitude); err != nil {
		logger.Debug("walk location update rejected",
			zap.String("sessionId", payload.SessionID),
			zap.String("userId", c.UserID),
			zap.Error(err))
	}
}

func handleWalkEnd(c *realtime.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Completed bool   `json:"completed"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := walkService.End(ctx, payload.SessionID, c.UserID, payload.Completed); err != nil {
		router.EmitToConn(c.ID, realtime.EventError, gin.H{"message": "Failed to end walk session"})
	}
}
