package app

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/notifications"
	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/mail"
	"github.com/charlesng35/releasetrack/pkg/markdown"
)

// NewDispatcher assembles the notification pipeline on top of the backing store:
// users and preferences come from the services, the audit log and the email kill
// switch from the database.
func NewDispatcher(db *gorm.DB, sender mail.Sender, cfg NotificationConfig, now func() time.Time) (*notifications.Dispatcher, error) {
	if db == nil {
		return nil, errors.New("notification pipeline: db is required")
	}

	users, err := services.NewUserService(db)
	if err != nil {
		return nil, fmt.Errorf("notification pipeline: %w", err)
	}
	prefs, err := services.NewPreferenceService(db)
	if err != nil {
		return nil, fmt.Errorf("notification pipeline: %w", err)
	}
	settings, err := services.NewSettingsService(db)
	if err != nil {
		return nil, fmt.Errorf("notification pipeline: %w", err)
	}
	auditor, err := notifications.NewAuditor(db)
	if err != nil {
		return nil, fmt.Errorf("notification pipeline: %w", err)
	}
	renderer, err := notifications.NewRenderer(notifications.RendererOptions{
		AppURL:   cfg.AppURL,
		Markdown: markdown.NewRenderer(),
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("notification pipeline: %w", err)
	}

	return notifications.NewDispatcher(notifications.DispatcherConfig{
		Sender:       sender,
		Users:        users,
		Preferences:  prefs,
		Audit:        auditor,
		Renderer:     renderer,
		Enabled:      settings.EmailNotificationsEnabled,
		ExcludeActor: cfg.ExcludeActor,
		Now:          now,
	})
}
