package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

// CreateJumbotronInput describes a banner announcement.
type CreateJumbotronInput struct {
	Message   string
	Severity  string
	ExpiresAt *time.Time
}

// JumbotronService manages banner announcements.
type JumbotronService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewJumbotronService constructs a JumbotronService.
func NewJumbotronService(db *gorm.DB) (*JumbotronService, error) {
	if db == nil {
		return nil, errors.New("jumbotron service: db is required")
	}
	return &JumbotronService{db: db, now: time.Now}, nil
}

// Create stores an active banner.
func (s *JumbotronService) Create(ctx context.Context, input CreateJumbotronInput) (*models.JumbotronMessage, error) {
	ctx = ensureContext(ctx)

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewBadRequest("message is required")
	}
	severity := strings.ToLower(strings.TrimSpace(input.Severity))
	if severity == "" {
		severity = "info"
	}

	banner := &models.JumbotronMessage{
		Message:   message,
		Severity:  severity,
		Active:    true,
		ExpiresAt: input.ExpiresAt,
	}
	if err := s.db.WithContext(ctx).Create(banner).Error; err != nil {
		return nil, fmt.Errorf("jumbotron service: create message: %w", err)
	}
	return banner, nil
}

// ListActive returns active banners that have not expired, newest first.
func (s *JumbotronService) ListActive(ctx context.Context) ([]models.JumbotronMessage, error) {
	ctx = ensureContext(ctx)

	var banners []models.JumbotronMessage
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", s.now().UTC()).
		Order("created_at DESC").
		Find(&banners).Error; err != nil {
		return nil, fmt.Errorf("jumbotron service: list messages: %w", err)
	}
	return banners, nil
}
