package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

var metadataActions = map[string]struct{}{
	"added":    {},
	"modified": {},
	"deleted":  {},
}

// RecordMetadataInput describes a Salesforce metadata change.
type RecordMetadataInput struct {
	TicketID     string
	ReleaseID    string
	MetadataType string
	APIName      string
	Action       string
	Notes        string
}

// MetadataService tracks metadata components changed by tickets and releases.
type MetadataService struct {
	db *gorm.DB
}

// NewMetadataService constructs a MetadataService.
func NewMetadataService(db *gorm.DB) (*MetadataService, error) {
	if db == nil {
		return nil, errors.New("metadata service: db is required")
	}
	return &MetadataService{db: db}, nil
}

// Record stores a metadata change.
func (s *MetadataService) Record(ctx context.Context, input RecordMetadataInput) (*models.MetadataItem, error) {
	ctx = ensureContext(ctx)

	metadataType := strings.TrimSpace(input.MetadataType)
	apiName := strings.TrimSpace(input.APIName)
	action := strings.ToLower(strings.TrimSpace(input.Action))
	if metadataType == "" || apiName == "" {
		return nil, apperrors.NewBadRequest("metadata type and api name are required")
	}
	if action == "" {
		action = "modified"
	}
	if _, ok := metadataActions[action]; !ok {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown metadata action %q", action))
	}

	item := &models.MetadataItem{
		TicketID:     optionalID(&input.TicketID),
		ReleaseID:    optionalID(&input.ReleaseID),
		MetadataType: metadataType,
		APIName:      apiName,
		Action:       action,
		Notes:        input.Notes,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("metadata service: record metadata: %w", err)
	}
	return item, nil
}

// ListForRelease returns the metadata changes shipped in a release.
func (s *MetadataService) ListForRelease(ctx context.Context, releaseID string) ([]models.MetadataItem, error) {
	ctx = ensureContext(ctx)

	var items []models.MetadataItem
	if err := s.db.WithContext(ctx).
		Where("release_id = ?", strings.TrimSpace(releaseID)).
		Order("metadata_type ASC, api_name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("metadata service: list metadata: %w", err)
	}
	return items, nil
}
