package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Release{},
		&models.Ticket{},
		&models.Comment{},
		&models.Attachment{},
		&models.MetadataItem{},
		&models.NotificationPreference{},
		&models.NotificationLog{},
		&models.JumbotronMessage{},
		&models.SystemSetting{},
	)
}

// SeedData stores default system settings without overwriting operator changes.
func SeedData(db *gorm.DB) error {
	defaults := []models.SystemSetting{
		{Key: EmailNotificationsEnabledSetting, Value: "true"},
	}

	for _, setting := range defaults {
		if err := db.Where(models.SystemSetting{Key: setting.Key}).Attrs(setting).FirstOrCreate(&models.SystemSetting{}).Error; err != nil {
			return err
		}
	}

	return nil
}
