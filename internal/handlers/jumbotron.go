package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// JumbotronHandler manages site-wide banner announcements.
type JumbotronHandler struct {
	service *services.JumbotronService
}

type createJumbotronRequest struct {
	Message   string     `json:"message" validate:"required"`
	Severity  string     `json:"severity" validate:"omitempty,oneof=info warning critical"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func NewJumbotronHandler(db *gorm.DB) (*JumbotronHandler, error) {
	svc, err := services.NewJumbotronService(db)
	if err != nil {
		return nil, err
	}
	return &JumbotronHandler{service: svc}, nil
}

// GET /api/jumbotron
func (h *JumbotronHandler) List(c *gin.Context) {
	items, err := h.service.ListActive(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// POST /api/jumbotron
func (h *JumbotronHandler) Create(c *gin.Context) {
	var body createJumbotronRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.service.Create(requestContext(c), services.CreateJumbotronInput{
		Message:   body.Message,
		Severity:  body.Severity,
		ExpiresAt: body.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}
