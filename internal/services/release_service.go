package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

// ErrReleaseNotFound indicates the requested release does not exist.
var ErrReleaseNotFound = apperrors.New("RELEASE_NOT_FOUND", "Release not found", http.StatusNotFound)

// CreateReleaseInput describes a new release.
type CreateReleaseInput struct {
	Name       string
	Version    string
	TargetDate *time.Time
	Status     string
	Notes      string
}

// ReleaseService manages releases.
type ReleaseService struct {
	db *gorm.DB
}

// NewReleaseService constructs a ReleaseService.
func NewReleaseService(db *gorm.DB) (*ReleaseService, error) {
	if db == nil {
		return nil, errors.New("release service: db is required")
	}
	return &ReleaseService{db: db}, nil
}

// Create stores a release.
func (s *ReleaseService) Create(ctx context.Context, input CreateReleaseInput) (*models.Release, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "planned"
	}

	release := &models.Release{
		Name:       name,
		Version:    strings.TrimSpace(input.Version),
		TargetDate: input.TargetDate,
		Status:     status,
		Notes:      input.Notes,
	}
	if err := s.db.WithContext(ctx).Create(release).Error; err != nil {
		return nil, fmt.Errorf("release service: create release: %w", err)
	}
	return release, nil
}

// GetByID loads a release by identifier.
func (s *ReleaseService) GetByID(ctx context.Context, id string) (*models.Release, error) {
	ctx = ensureContext(ctx)

	var release models.Release
	err := s.db.WithContext(ctx).First(&release, "id = ?", strings.TrimSpace(id)).Error
	if isMissingRecord(err) {
		return nil, ErrReleaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("release service: get release: %w", err)
	}
	return &release, nil
}

// List returns every release ordered by target date, undated releases last.
func (s *ReleaseService) List(ctx context.Context) ([]models.Release, error) {
	ctx = ensureContext(ctx)

	var releases []models.Release
	if err := s.db.WithContext(ctx).
		Order("CASE WHEN target_date IS NULL THEN 1 ELSE 0 END, target_date ASC, created_at ASC").
		Find(&releases).Error; err != nil {
		return nil, fmt.Errorf("release service: list releases: %w", err)
	}
	return releases, nil
}
