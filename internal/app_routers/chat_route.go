package approuters

import (
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/auth"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/configuration"
	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/chat")
	chatRoute.Use(auth.RequireAuth(container.Verifier))
	{
		chatRoute.GET("/conversation/:otherUserId", container.ChatHandler.GetConversation)
		chatRoute.GET("/conversations", container.ChatHandler.GetConversations)
		chatRoute.POST("/message", container.ChatHandler.SendMessage)
		chatRoute.GET("/messages/:conversationId", container.ChatHandler.GetMessages)
		chatRoute.POST("/read", container.ChatHandler.MarkAsRead)
		chatRoute.GET("/users", container.ChatHandler.GetAllUsers)
	}
}
