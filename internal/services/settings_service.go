package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/database"
)

// SettingsService exposes installation-wide switches.
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	return &SettingsService{db: db}, nil
}

// EmailNotificationsEnabled reports the email kill switch, failing open on errors.
func (s *SettingsService) EmailNotificationsEnabled(ctx context.Context) (bool, error) {
	return database.EmailNotificationsEnabled(ensureContext(ctx), s.db)
}

// SetEmailNotificationsEnabled flips the email kill switch.
func (s *SettingsService) SetEmailNotificationsEnabled(ctx context.Context, enabled bool) error {
	if err := database.SetEmailNotificationsEnabled(ensureContext(ctx), s.db, enabled); err != nil {
		return fmt.Errorf("settings service: %w", err)
	}
	return nil
}
