package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
)

// EmailNotificationsEnabledSetting is the installation-wide email kill switch.
const EmailNotificationsEnabledSetting = "notifications.email_enabled"

// GetSystemSetting retrieves a system setting by key. Returns an empty string when not found.
func GetSystemSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("system settings: db is nil")
	}

	var setting models.SystemSetting
	err := db.WithContext(ctx).Take(&setting, "key = ?", key).Error
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return "", nil
	}
	return "", fmt.Errorf("system settings: get %q: %w", key, err)
}

// UpsertSystemSetting stores or updates a system setting value.
func UpsertSystemSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return fmt.Errorf("system settings: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("system settings: key is required")
	}

	record := models.SystemSetting{
		Key:   key,
		Value: value,
	}

	if err := db.WithContext(ctx).
		Where("key = ?", key).
		Assign(map[string]any{"value": value}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("system settings: upsert %q: %w", key, err)
	}

	return nil
}

// EmailNotificationsEnabled reports the kill switch state. A missing or unparsable
// value counts as enabled; the error is returned alongside so callers can log it.
func EmailNotificationsEnabled(ctx context.Context, db *gorm.DB) (bool, error) {
	value, err := GetSystemSetting(ctx, db, EmailNotificationsEnabledSetting)
	if err != nil {
		return true, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return true, nil
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return true, fmt.Errorf("system settings: parse %q: %w", EmailNotificationsEnabledSetting, err)
	}
	return enabled, nil
}

// SetEmailNotificationsEnabled flips the kill switch.
func SetEmailNotificationsEnabled(ctx context.Context, db *gorm.DB, enabled bool) error {
	return UpsertSystemSetting(ctx, db, EmailNotificationsEnabledSetting, strconv.FormatBool(enabled))
}
