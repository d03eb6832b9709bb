package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/internal/services"
	appErrors "github.com/charlesng35/releasetrack/pkg/errors"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// NotificationLogHandler exposes the read-only email notification audit log.
type NotificationLogHandler struct {
	service *services.NotificationLogService
}

func NewNotificationLogHandler(db *gorm.DB) (*NotificationLogHandler, error) {
	svc, err := services.NewNotificationLogService(db)
	if err != nil {
		return nil, err
	}
	return &NotificationLogHandler{service: svc}, nil
}

// GET /api/notification-logs
func (h *NotificationLogHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)

	kind := models.NotificationKind(strings.TrimSpace(c.Query("type")))
	if kind != "" && !kind.Valid() {
		response.Error(c, appErrors.NewBadRequest(fmt.Sprintf("unknown notification type %q", kind)))
		return
	}

	ticketID, ok := queryID(c, "ticket_id")
	if !ok {
		return
	}

	rows, total, err := h.service.List(requestContext(c), services.ListNotificationLogsOptions{
		TicketID: ticketID,
		Type:     kind,
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, rows, response.NewMeta(page, perPage, total))
}
