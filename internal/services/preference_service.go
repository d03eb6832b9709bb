package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/releasetrack/internal/models"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

// UpdatePreferenceInput patches notification opt-ins. Nil fields keep their value.
type UpdatePreferenceInput struct {
	NotifyOnStatusChange   *bool
	NotifyOnAssigneeChange *bool
	NotifyOnComment        *bool
	NotifyOnMention        *bool
}

// PreferenceService manages per-user notification preferences.
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(db *gorm.DB) (*PreferenceService, error) {
	if db == nil {
		return nil, errors.New("preference service: db is required")
	}
	return &PreferenceService{db: db}, nil
}

// Get returns the effective preferences for userID; users without a row get the defaults.
func (s *PreferenceService) Get(ctx context.Context, userID string) (models.NotificationPreference, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.NotificationPreference{}, apperrors.NewBadRequest("user id is required")
	}

	var pref models.NotificationPreference
	err := s.db.WithContext(ctx).Take(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultNotificationPreference(userID), nil
	}
	if err != nil {
		return models.NotificationPreference{}, fmt.Errorf("preference service: get: %w", err)
	}
	return pref, nil
}

// Update applies input over the effective preferences and upserts the row.
func (s *PreferenceService) Update(ctx context.Context, userID string, input UpdatePreferenceInput) (models.NotificationPreference, error) {
	ctx = ensureContext(ctx)

	pref, err := s.Get(ctx, userID)
	if err != nil {
		return models.NotificationPreference{}, err
	}

	if input.NotifyOnStatusChange != nil {
		pref.NotifyOnStatusChange = *input.NotifyOnStatusChange
	}
	if input.NotifyOnAssigneeChange != nil {
		pref.NotifyOnAssigneeChange = *input.NotifyOnAssigneeChange
	}
	if input.NotifyOnComment != nil {
		pref.NotifyOnComment = *input.NotifyOnComment
	}
	if input.NotifyOnMention != nil {
		pref.NotifyOnMention = *input.NotifyOnMention
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"notify_on_status_change",
			"notify_on_assignee_change",
			"notify_on_comment",
			"notify_on_mention",
			"updated_at",
		}),
	}).Create(&pref).Error
	if err != nil {
		return models.NotificationPreference{}, fmt.Errorf("preference service: upsert: %w", err)
	}

	return s.Get(ctx, pref.UserID)
}

// PreferencesFor returns stored rows keyed by user id. Users without a row are absent.
func (s *PreferenceService) PreferencesFor(ctx context.Context, userIDs []string) (map[string]models.NotificationPreference, error) {
	ctx = ensureContext(ctx)

	ids := normaliseIDs(userIDs)
	out := make(map[string]models.NotificationPreference, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.NotificationPreference
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("preference service: load: %w", err)
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}
