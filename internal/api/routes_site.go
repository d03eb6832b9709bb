package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/internal/handlers"
)

func registerSiteRoutes(api *gin.RouterGroup, jumbotron *handlers.JumbotronHandler, settings *handlers.SettingsHandler) {
	api.GET("/jumbotron", jumbotron.List)
	api.POST("/jumbotron", jumbotron.Create)

	api.GET("/settings/email-notifications", settings.GetEmailNotifications)
	api.PUT("/settings/email-notifications", settings.UpdateEmailNotifications)
}
