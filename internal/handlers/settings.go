package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// SettingsHandler exposes the installation-wide email notification switch.
type SettingsHandler struct {
	service *services.SettingsService
}

type updateEmailSettingsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func NewSettingsHandler(db *gorm.DB) (*SettingsHandler, error) {
	svc, err := services.NewSettingsService(db)
	if err != nil {
		return nil, err
	}
	return &SettingsHandler{service: svc}, nil
}

// GET /api/settings/email-notifications
func (h *SettingsHandler) GetEmailNotifications(c *gin.Context) {
	enabled, err := h.service.EmailNotificationsEnabled(requestContext(c))
	if err != nil {
		// Reported value is the fail-open default the pipeline also uses.
		logger.WithModule("settings").Warn("read email notification setting", zap.Error(err))
	}
	response.Success(c, http.StatusOK, gin.H{"enabled": enabled})
}

// PUT /api/settings/email-notifications
func (h *SettingsHandler) UpdateEmailNotifications(c *gin.Context) {
	var body updateEmailSettingsRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.SetEmailNotificationsEnabled(requestContext(c), *body.Enabled); err != nil {
		response.Error(c, err)
		return
	}

	logger.WithModule("settings").Info("email notifications toggled",
		zap.Bool("enabled", *body.Enabled),
		zap.String("actor_id", actorID(c)),
	)
	response.Success(c, http.StatusOK, gin.H{"enabled": *body.Enabled})
}
