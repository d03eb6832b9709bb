package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
)

func TestGetAndUpsertSystemSetting(t *testing.T) {
	db := openSystemSettingTestDB(t)

	value, err := GetSystemSetting(context.Background(), db, "missing")
	require.NoError(t, err)
	require.Equal(t, "", value)

	require.NoError(t, UpsertSystemSetting(context.Background(), db, "sample", "value1"))

	retrieved, err := GetSystemSetting(context.Background(), db, "sample")
	require.NoError(t, err)
	require.Equal(t, "value1", retrieved)

	require.NoError(t, UpsertSystemSetting(context.Background(), db, "sample", "value2"))

	retrieved, err = GetSystemSetting(context.Background(), db, "sample")
	require.NoError(t, err)
	require.Equal(t, "value2", retrieved)
}

func TestUpsertSystemSettingRequiresKey(t *testing.T) {
	db := openSystemSettingTestDB(t)

	require.Error(t, UpsertSystemSetting(context.Background(), db, "  ", "value"))
}

func TestEmailNotificationsEnabled(t *testing.T) {
	db := openSystemSettingTestDB(t)
	ctx := context.Background()

	enabled, err := EmailNotificationsEnabled(ctx, db)
	require.NoError(t, err)
	require.True(t, enabled, "missing setting defaults to enabled")

	require.NoError(t, SetEmailNotificationsEnabled(ctx, db, false))
	enabled, err = EmailNotificationsEnabled(ctx, db)
	require.NoError(t, err)
	require.False(t, enabled)

	require.NoError(t, UpsertSystemSetting(ctx, db, EmailNotificationsEnabledSetting, "maybe"))
	enabled, err = EmailNotificationsEnabled(ctx, db)
	require.Error(t, err)
	require.True(t, enabled, "unparsable setting fails open")
}

func TestEmailNotificationsEnabledWithoutTable(t *testing.T) {
	db := openTestDB(t)

	enabled, err := EmailNotificationsEnabled(context.Background(), db)
	require.NoError(t, err)
	require.True(t, enabled)
}

func openSystemSettingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.SystemSetting{}))
	return db
}
