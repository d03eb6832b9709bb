package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/internal/handlers"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

func registerHealthRoutes(api *gin.RouterGroup, settings mail.Settings) {
	api.GET("/health", handlers.Health(settings))
}
