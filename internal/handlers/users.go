package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// UserHandler exposes users and their notification preferences.
type UserHandler struct {
	users       *services.UserService
	preferences *services.PreferenceService
}

type createUserRequest struct {
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
	Email     string `json:"email" validate:"required,email,max=320"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=128"`
	LastName  *string `json:"last_name" validate:"omitempty,max=128"`
	Email     *string `json:"email" validate:"omitempty,email,max=320"`
}

type updatePreferencesRequest struct {
	NotifyOnStatusChange   *bool `json:"notify_on_status_change"`
	NotifyOnAssigneeChange *bool `json:"notify_on_assignee_change"`
	NotifyOnComment        *bool `json:"notify_on_comment"`
	NotifyOnMention        *bool `json:"notify_on_mention"`
}

func NewUserHandler(db *gorm.DB) (*UserHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	prefs, err := services.NewPreferenceService(db)
	if err != nil {
		return nil, err
	}
	return &UserHandler{users: users, preferences: prefs}, nil
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)

	users, total, err := h.users.List(requestContext(c), services.ListUsersOptions{
		Page:     page,
		PageSize: perPage,
		Query:    c.Query("q"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, users, response.NewMeta(page, perPage, total))
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     strings.TrimSpace(body.Email),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, user)
}

// PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var body updateUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.users.Update(requestContext(c), pathID(c, "id"), services.UpdateUserInput{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /api/users/:id/preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	prefs, err := h.preferences.Get(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, prefs)
}

// PUT /api/users/:id/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var body updatePreferencesRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.users.GetByID(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	prefs, err := h.preferences.Update(requestContext(c), user.ID, services.UpdatePreferenceInput{
		NotifyOnStatusChange:   body.NotifyOnStatusChange,
		NotifyOnAssigneeChange: body.NotifyOnAssigneeChange,
		NotifyOnComment:        body.NotifyOnComment,
		NotifyOnMention:        body.NotifyOnMention,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, prefs)
}
