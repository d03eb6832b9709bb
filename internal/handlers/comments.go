package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// CommentHandler exposes ticket comments. Adding a comment notifies mentioned users
// and the ticket's participants.
type CommentHandler struct {
	service *services.CommentService
}

type addCommentRequest struct {
	Content  string   `json:"content" validate:"required"`
	Mentions []string `json:"mentions" validate:"omitempty,dive,uuid4"`
}

// NewCommentHandler constructs a comment handler. notifier may be nil.
func NewCommentHandler(db *gorm.DB, notifier services.TicketNotifier) (*CommentHandler, error) {
	svc, err := services.NewCommentService(db, notifier)
	if err != nil {
		return nil, err
	}
	return &CommentHandler{service: svc}, nil
}

// GET /api/tickets/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.service.ListForTicket(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// POST /api/tickets/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var body addCommentRequest
	if !bindAndValidate(c, &body) {
		return
	}

	comment, err := h.service.Add(requestContext(c), services.AddCommentInput{
		TicketID: pathID(c, "id"),
		AuthorID: actorID(c),
		Content:  body.Content,
		Mentions: body.Mentions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}
