package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/logger"
)

const (
	defaultLogSpec    = "@daily"
	defaultBannerSpec = "@hourly"
)

// Cleaner runs periodic housekeeping: pruning the email notification log past its
// retention window and deactivating expired jumbotron banners.
type Cleaner struct {
	db        *gorm.DB
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	logSchedule    string
	bannerSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithLogRetentionDays enables notification log pruning. Zero keeps rows forever.
func WithLogRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days >= 0 {
			cleaner.retention = days
		}
	}
}

// WithLogSchedule overrides the cron specification for notification log pruning.
func WithLogSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.logSchedule = spec
		}
	}
}

// WithBannerSchedule overrides the cron specification for banner expiry.
func WithBannerSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.bannerSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil db disables every job.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:             db,
		now:            time.Now,
		logSchedule:    defaultLogSpec,
		bannerSchedule: defaultBannerSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if c.retention > 0 {
		if _, err := c.cron.AddFunc(c.logSchedule, func() {
			removed, err := PruneNotificationLogs(context.Background(), c.db, c.cutoff())
			if err != nil {
				c.log.Warn("notification log pruning failed", zap.Error(err))
				return
			}
			if removed > 0 {
				c.log.Info("notification log pruned", zap.Int64("removed", removed))
			}
		}); err != nil {
			return err
		}
	}

	if _, err := c.cron.AddFunc(c.bannerSchedule, func() {
		if _, err := DeactivateExpiredBanners(context.Background(), c.db, c.now()); err != nil {
			c.log.Warn("banner expiry failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every enabled cleanup routine sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.db == nil {
		return nil
	}

	var errs error

	if c.retention > 0 {
		if _, err := PruneNotificationLogs(ctx, c.db, c.cutoff()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if _, err := DeactivateExpiredBanners(ctx, c.db, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

func (c *Cleaner) cutoff() time.Time {
	return c.now().UTC().AddDate(0, 0, -c.retention)
}

// PruneNotificationLogs deletes notification log rows sent before cutoff.
func PruneNotificationLogs(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("prune notification logs: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("sent_at < ?", cutoff).
		Delete(&models.NotificationLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune notification logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeactivateExpiredBanners switches off active banners whose expiry has passed.
func DeactivateExpiredBanners(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("deactivate banners: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Model(&models.JumbotronMessage{}).
		Where("active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now.UTC()).
		Update("active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("deactivate banners: %w", result.Error)
	}
	return result.RowsAffected, nil
}
