package controllers

import (
	"go.uber.org/zap"

	"safezonex-be/realtime"
	"safezonex-be/services"
)

var (
	alertService *services.AlertService
	sosService   *services.SOSService
	walkService  *services.WalkService
	hub          *realtime.Hub
	router       *realtime.Router
	logger       *zap.Logger
)

// Setup injects the shared services. Called once from main before routes are
// registered.
func Setup(alerts *services.AlertService, sos *services.SOSService, walks *services.WalkService, h *realtime.Hub, r *realtime.Router, l *zap.Logger) {
	alertService = alerts
	sosService = sos
	walkService = walks
	hub = h
	router = r
	logger = l
}
