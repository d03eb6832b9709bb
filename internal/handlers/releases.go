package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// ReleaseHandler exposes releases and the metadata changes shipped with them.
type ReleaseHandler struct {
	releases *services.ReleaseService
	metadata *services.MetadataService
}

type createReleaseRequest struct {
	Name       string     `json:"name" validate:"required,max=255"`
	Version    string     `json:"version" validate:"max=64"`
	TargetDate *time.Time `json:"target_date"`
	Status     string     `json:"status" validate:"max=32"`
	Notes      string     `json:"notes"`
}

type recordMetadataRequest struct {
	TicketID     string `json:"ticket_id" validate:"omitempty,uuid4"`
	ReleaseID    string `json:"release_id" validate:"omitempty,uuid4"`
	MetadataType string `json:"metadata_type" validate:"required,max=128"`
	APIName      string `json:"api_name" validate:"required,max=255"`
	Action       string `json:"action" validate:"omitempty,oneof=added modified deleted"`
	Notes        string `json:"notes"`
}

func NewReleaseHandler(db *gorm.DB) (*ReleaseHandler, error) {
	releases, err := services.NewReleaseService(db)
	if err != nil {
		return nil, err
	}
	metadata, err := services.NewMetadataService(db)
	if err != nil {
		return nil, err
	}
	return &ReleaseHandler{releases: releases, metadata: metadata}, nil
}

// GET /api/releases
func (h *ReleaseHandler) List(c *gin.Context) {
	releases, err := h.releases.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, releases)
}

// GET /api/releases/:id
func (h *ReleaseHandler) Get(c *gin.Context) {
	release, err := h.releases.GetByID(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, release)
}

// POST /api/releases
func (h *ReleaseHandler) Create(c *gin.Context) {
	var body createReleaseRequest
	if !bindAndValidate(c, &body) {
		return
	}

	release, err := h.releases.Create(requestContext(c), services.CreateReleaseInput{
		Name:       body.Name,
		Version:    body.Version,
		TargetDate: body.TargetDate,
		Status:     body.Status,
		Notes:      body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, release)
}

// GET /api/releases/:id/metadata
func (h *ReleaseHandler) ListMetadata(c *gin.Context) {
	items, err := h.metadata.ListForRelease(requestContext(c), pathID(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// POST /api/metadata
func (h *ReleaseHandler) RecordMetadata(c *gin.Context) {
	var body recordMetadataRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.metadata.Record(requestContext(c), services.RecordMetadataInput{
		TicketID:     body.TicketID,
		ReleaseID:    body.ReleaseID,
		MetadataType: body.MetadataType,
		APIName:      body.APIName,
		Action:       body.Action,
		Notes:        body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}
