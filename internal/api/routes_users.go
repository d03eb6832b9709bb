package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	users := api.Group("/users")
	{
		users.GET("", handler.List)
		users.POST("", handler.Create)
		users.GET("/:id", handler.Get)
		users.PATCH("/:id", handler.Update)
		users.GET("/:id/preferences", handler.GetPreferences)
		users.PUT("/:id/preferences", handler.UpdatePreferences)
	}
}
