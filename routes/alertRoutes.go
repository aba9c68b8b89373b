package routes

import (
	"safezonex-be/controllers"
	"safezonex-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AlertRoutes sets up the report intake and dashboard routes
func AlertRoutes(r *gin.Engine) {
	alerts := r.Group("/api/alerts")
	{
		alerts.POST("", middlewares.AuthMiddleware(), middlewares.ReportRateLimiter(20), controllers.SubmitAlert)
		alerts.GET("", middlewares.AuthMiddleware(), controllers.GetAllAlerts)
		alerts.GET("/:id", middlewares.AuthMiddleware(), controllers.GetAlert)
		alerts.PUT("/:id/status", middlewares.AuthMiddleware(), controllers.UpdateAlertStatus)
	}
}
