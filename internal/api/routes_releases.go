package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/internal/handlers"
)

func registerReleaseRoutes(api *gin.RouterGroup, handler *handlers.ReleaseHandler) {
	releases := api.Group("/releases")
	{
		releases.GET("", handler.List)
		releases.POST("", handler.Create)
		releases.GET("/:id", handler.Get)
		releases.GET("/:id/metadata", handler.ListMetadata)
	}
	api.POST("/metadata", handler.RecordMetadata)
}
