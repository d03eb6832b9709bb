package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/api"
	"github.com/charlesng35/releasetrack/internal/app"
	"github.com/charlesng35/releasetrack/internal/app/maintenance"
	"github.com/charlesng35/releasetrack/internal/database"
	"github.com/charlesng35/releasetrack/internal/middleware"
	"github.com/charlesng35/releasetrack/internal/notifications"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Sender     mail.Sender
	Dispatcher *notifications.Dispatcher
	Cleaner    *maintenance.Cleaner
	RateStore  middleware.RateStore
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, the email pipeline, housekeeping jobs and
// the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Sender, err = buildServerSender(cfg.Email)
	if err != nil {
		return nil, err
	}
	settings := cfg.Email.Settings()
	if !settings.ProviderConfigured() {
		log.Warn("email provider credentials are not configured; sends will fail",
			zap.String("transport", stack.Sender.Transport()))
	}

	stack.Dispatcher, err = app.NewDispatcher(stack.DB, stack.Sender, cfg.Notifications, nil)
	if err != nil {
		return nil, fmt.Errorf("initialise notification pipeline: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.DB,
			maintenance.WithLogRetentionDays(cfg.Maintenance.LogRetentionDays),
			maintenance.WithLogSchedule(cfg.Maintenance.LogSchedule),
			maintenance.WithBannerSchedule(cfg.Maintenance.BannerSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.RateStore = middleware.NewMemoryRateStore()

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:        stack.DB,
		Config:    cfg,
		Sender:    stack.Sender,
		Notifier:  stack.Dispatcher,
		RateStore: stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// buildServerSender creates the provider sender used by both the relay endpoint and
// the notification pipeline. The relay transport would post back to this process, so
// the server only accepts smtp or disabled.
func buildServerSender(cfg app.EmailConfig) (mail.Sender, error) {
	settings := cfg.Settings()
	if strings.EqualFold(strings.TrimSpace(settings.Transport), mail.TransportRelay) {
		return nil, errors.New("email.transport \"relay\" is only valid for clients of a relay; the server must use smtp or disabled")
	}

	sender, err := mail.NewSender(settings)
	if err != nil {
		return nil, fmt.Errorf("initialise email sender: %w", err)
	}
	return sender, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := closeDatabase(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, multierr.Append(fmt.Errorf("auto-migrate database: %w", err), closeDatabase(db))
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql db: %w", err)
	}
	return sqlDB.Close()
}
