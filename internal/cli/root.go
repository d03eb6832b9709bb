// Package cli implements rtctl, the operator command line for ReleaseTrack.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/app"
	"github.com/charlesng35/releasetrack/internal/database"
	"github.com/charlesng35/releasetrack/pkg/logger"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the rtctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "rtctl",
		Short:         "ReleaseTrack operator tooling",
		Long:          `rtctl manages the ReleaseTrack database, sends test email through the configured transport and replays ticket notifications.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration directory or file (default: ./config)")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newSendTestCommand(opts),
		newNotifyCommand(opts),
		newEmailNotificationsCommand(opts),
		newPruneCommand(opts),
	)

	return cmd
}

// load reads the configuration and initialises logging.
func (o *rootOptions) load() (*app.Config, error) {
	cfg, err := app.LoadConfigPath(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := app.ConfigureLogging(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// openDatabase connects to the configured database and applies migrations. The caller
// closes the returned function.
func openDatabase(cfg *app.Config) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg.Database.ConnectionConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = logger.Sync()
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, closeFn, nil
}
