package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/charlesng35/releasetrack/internal/database/testutil"
	"github.com/charlesng35/releasetrack/internal/models"
)

func TestPruneNotificationLogs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)

	seedLog(t, db, now.AddDate(0, 0, -40))
	seedLog(t, db, now.AddDate(0, 0, -10))

	removed, err := PruneNotificationLogs(context.Background(), db, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var count int64
	require.NoError(t, db.Model(&models.NotificationLog{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestDeactivateExpiredBanners(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)

	expired := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	old := seedBanner(t, db, &expired)
	upcoming := seedBanner(t, db, &future)
	forever := seedBanner(t, db, nil)

	changed, err := DeactivateExpiredBanners(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), changed)

	require.False(t, reloadBanner(t, db, old.ID).Active)
	require.True(t, reloadBanner(t, db, upcoming.ID).Active)
	require.True(t, reloadBanner(t, db, forever.ID).Active)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}

	seedLog(t, db, clock.Now().AddDate(0, 0, -10))
	seedLog(t, db, clock.Now().AddDate(0, 0, -1))
	expired := clock.Now().Add(-time.Minute)
	banner := seedBanner(t, db, &expired)

	c := NewCleaner(db,
		WithNow(clock.Now),
		WithLogRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)
	require.NoError(t, c.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.NotificationLog{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.False(t, reloadBanner(t, db, banner.ID).Active)
}

func TestCleanerKeepsLogsWithoutRetention(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	seedLog(t, db, clock.Now().AddDate(-2, 0, 0))

	c := NewCleaner(db, WithNow(clock.Now))
	require.NoError(t, c.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.NotificationLog{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	c := NewCleaner(db, WithBannerSchedule("not a schedule"))
	require.Error(t, c.Start())

	idle := NewCleaner(nil)
	require.NoError(t, idle.Start())
	<-idle.Stop().Done()
}

func seedLog(t *testing.T, db *gorm.DB, sentAt time.Time) models.NotificationLog {
	t.Helper()
	row := models.NotificationLog{
		Type:     models.KindStatusChange,
		TicketID: "T1",
		SentAt:   sentAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func seedBanner(t *testing.T, db *gorm.DB, expiresAt *time.Time) models.JumbotronMessage {
	t.Helper()
	banner := models.JumbotronMessage{
		Message:   "Release freeze",
		Severity:  "warning",
		Active:    true,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(&banner).Error)
	return banner
}

func reloadBanner(t *testing.T, db *gorm.DB, id string) models.JumbotronMessage {
	t.Helper()
	var banner models.JumbotronMessage
	require.NoError(t, db.First(&banner, "id = ?", id).Error)
	return banner
}

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}
