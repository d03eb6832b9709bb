package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// AttachmentHandler records attachment metadata for tickets.
type AttachmentHandler struct {
	service *services.AttachmentService
}

type recordAttachmentRequest struct {
	FilePath     string `json:"file_path" validate:"required"`
	FileName     string `json:"file_name" validate:"max=255"`
	FileSize     int64  `json:"file_size" validate:"gte=0"`
	OriginalSize int64  `json:"original_size" validate:"gte=0"`
	MimeType     string `json:"mime_type" validate:"max=128"`
}

func NewAttachmentHandler(db *gorm.DB) (*AttachmentHandler, error) {
	svc, err := services.NewAttachmentService(db)
	if err != nil {
		return nil, err
	}
	return &AttachmentHandler{service: svc}, nil
}

// GET /api/tickets/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	items, err := h.service.ListForTicket(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// POST /api/tickets/:id/attachments
func (h *AttachmentHandler) Create(c *gin.Context) {
	var body recordAttachmentRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.service.Record(requestContext(c), services.RecordAttachmentInput{
		TicketID:     pathID(c, "id"),
		FilePath:     body.FilePath,
		FileName:     body.FileName,
		FileSize:     body.FileSize,
		OriginalSize: body.OriginalSize,
		MimeType:     body.MimeType,
		UploadedBy:   actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}
