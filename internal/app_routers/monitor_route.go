package approuters

import (
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/configuration"
	"github.com/gin-gonic/gin"
)

func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	router.GET("/monitor", container.MonitorHandler.GetStats)
}
