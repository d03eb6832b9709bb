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

// TicketHandler exposes ticket CRUD. Status and assignee changes raise email
// notifications through the service.
type TicketHandler struct {
	service *services.TicketService
}

type createTicketRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority" validate:"max=32"`
	Type        string `json:"type" validate:"max=64"`
	SupportArea string `json:"support_area" validate:"max=128"`
	RequesterID string `json:"requester_id" validate:"omitempty,uuid4"`
	AssigneeID  string `json:"assignee_id" validate:"omitempty,uuid4"`
	ReleaseID   string `json:"release_id" validate:"omitempty,uuid4"`
}

type updateTicketRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority" validate:"omitempty,max=32"`
	Type          *string `json:"type" validate:"omitempty,max=64"`
	SupportArea   *string `json:"support_area" validate:"omitempty,max=128"`
	AssigneeID    *string `json:"assignee_id"`
	ReleaseID     *string `json:"release_id"`
	SolutionNotes *string `json:"solution_notes"`
	TestNotes     *string `json:"test_notes"`
}

// NewTicketHandler constructs a ticket handler. notifier may be nil.
func NewTicketHandler(db *gorm.DB, notifier services.TicketNotifier) (*TicketHandler, error) {
	svc, err := services.NewTicketService(db, notifier)
	if err != nil {
		return nil, err
	}
	return &TicketHandler{service: svc}, nil
}

// GET /api/tickets
func (h *TicketHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)

	status := models.TicketStatus(strings.TrimSpace(c.Query("status")))
	if status != "" && !status.Valid() {
		response.Error(c, appErrors.NewBadRequest(fmt.Sprintf("unknown status %q", status)))
		return
	}

	assigneeID, ok := queryID(c, "assignee_id")
	if !ok {
		return
	}
	releaseID, ok := queryID(c, "release_id")
	if !ok {
		return
	}

	tickets, total, err := h.service.List(requestContext(c), services.ListTicketsOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.TicketFilters{
			Status:     status,
			Priority:   c.Query("priority"),
			AssigneeID: assigneeID,
			ReleaseID:  releaseID,
			Query:      c.Query("q"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, tickets, response.NewMeta(page, perPage, total))
}

// GET /api/tickets/statuses
func (h *TicketHandler) Statuses(c *gin.Context) {
	response.Success(c, http.StatusOK, models.TicketStatuses())
}

// GET /api/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.service.GetByID(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, ticket)
}

// POST /api/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var body createTicketRequest
	if !bindAndValidate(c, &body) {
		return
	}

	requester := strings.TrimSpace(body.RequesterID)
	if requester == "" {
		requester = actorID(c)
	}

	ticket, err := h.service.Create(requestContext(c), services.CreateTicketInput{
		Title:       body.Title,
		Description: body.Description,
		Status:      models.TicketStatus(strings.TrimSpace(body.Status)),
		Priority:    body.Priority,
		Type:        body.Type,
		SupportArea: body.SupportArea,
		RequesterID: requester,
		AssigneeID:  body.AssigneeID,
		ReleaseID:   body.ReleaseID,
		ActorID:     actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, ticket)
}

// PATCH /api/tickets/:id
func (h *TicketHandler) Update(c *gin.Context) {
	var body updateTicketRequest
	if !bindAndValidate(c, &body) {
		return
	}
	// An empty string clears the reference, so these are checked by hand.
	if !optionalUUID(c, "assignee id", body.AssigneeID) || !optionalUUID(c, "release id", body.ReleaseID) {
		return
	}

	input := services.UpdateTicketInput{
		Title:         body.Title,
		Description:   body.Description,
		Priority:      body.Priority,
		Type:          body.Type,
		SupportArea:   body.SupportArea,
		AssigneeID:    body.AssigneeID,
		ReleaseID:     body.ReleaseID,
		SolutionNotes: body.SolutionNotes,
		TestNotes:     body.TestNotes,
		ActorID:       actorID(c),
	}
	if body.Status != nil {
		status := models.TicketStatus(strings.TrimSpace(*body.Status))
		input.Status = &status
	}

	ticket, err := h.service.Update(requestContext(c), pathID(c, "id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, ticket)
}

// DELETE /api/tickets/:id
func (h *TicketHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), pathID(c, "id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
