package approuters

import (
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/auth"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/configuration"
	"github.com/gin-gonic/gin"
)

func AuthRouters(router *gin.Engine, container *configuration.Container) {
	authRoute := router.Group("/api/auth")
	{
		authRoute.POST("/signup", container.AuthHandler.Signup)
		authRoute.POST("/login", container.AuthHandler.Login)
		authRoute.GET("/verify", auth.RequireAuth(container.Verifier), container.AuthHandler.Verify)
	}
}
