package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/handlers"
	"github.com/charlesng35/releasetrack/internal/services"
)

func registerTicketRoutes(api *gin.RouterGroup, db *gorm.DB, notifier services.TicketNotifier) error {
	ticketHandler, err := handlers.NewTicketHandler(db, notifier)
	if err != nil {
		return err
	}
	commentHandler, err := handlers.NewCommentHandler(db, notifier)
	if err != nil {
		return err
	}
	attachmentHandler, err := handlers.NewAttachmentHandler(db)
	if err != nil {
		return err
	}

	tickets := api.Group("/tickets")
	{
		tickets.GET("", ticketHandler.List)
		tickets.POST("", ticketHandler.Create)
		tickets.GET("/statuses", ticketHandler.Statuses)
		tickets.GET("/:id", ticketHandler.Get)
		tickets.PATCH("/:id", ticketHandler.Update)
		tickets.DELETE("/:id", ticketHandler.Delete)
		tickets.GET("/:id/comments", commentHandler.List)
		tickets.POST("/:id/comments", commentHandler.Create)
		tickets.GET("/:id/attachments", attachmentHandler.List)
		tickets.POST("/:id/attachments", attachmentHandler.Create)
	}
	return nil
}
