package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/internal/handlers"
)

func registerRelayRoutes(api *gin.RouterGroup, handler *handlers.EmailHandler, limiter gin.HandlerFunc) {
	api.POST("/send-email", limiter, handler.Send)
}
