package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenPostgresRequiresCredentials(t *testing.T) {
	_, err := Open(Config{Driver: "postgres"})
	require.Error(t, err)
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrateAndSeed(db))

	var setting models.SystemSetting
	require.NoError(t, db.Take(&setting, "key = ?", EmailNotificationsEnabledSetting).Error)
	require.Equal(t, "true", setting.Value)
}

func TestSeedDataKeepsOperatorValues(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, db.Create(&models.SystemSetting{Key: EmailNotificationsEnabledSetting, Value: "false"}).Error)
	require.NoError(t, SeedData(db))

	var setting models.SystemSetting
	require.NoError(t, db.Take(&setting, "key = ?", EmailNotificationsEnabledSetting).Error)
	require.Equal(t, "false", setting.Value)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
