package routes

import (
	"safezonex-be/controllers"
	"safezonex-be/middlewares"

	"github.com/gin-gonic/gin"
)

// SocialRoutes sets up the friends, messaging, and feedback routes
func SocialRoutes(r *gin.Engine) {
	friends := r.Group("/api/friends")
	{
		friends.POST("", middlewares.AuthMiddleware(), controllers.AddFriend)
		friends.GET("", middlewares.AuthMiddleware(), controllers.ListFriends)
	}

	messages := r.Group("/api/messages")
	{
		messages.POST("", middlewares.AuthMiddleware(), controllers.SendMessage)
		messages.GET("/:userId", middlewares.AuthMiddleware(), controllers.GetConversation)
		messages.PUT("/:userId/read", middlewares.AuthMiddleware(), controllers.MarkMessagesRead)
	}

	feedback := r.Group("/api/feedback")
	{
		feedback.POST("", middlewares.AuthMiddleware(), controllers.SubmitFeedback)
	}
}
