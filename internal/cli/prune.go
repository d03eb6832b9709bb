package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/releasetrack/internal/app/maintenance"
)

func newPruneCommand(opts *rootOptions) *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Run housekeeping once: prune old notification logs and expire banners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			db, closeFn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			days := cfg.Maintenance.LogRetentionDays
			if cmd.Flags().Changed("retention-days") {
				days = retentionDays
			}
			if days < 0 {
				return fmt.Errorf("retention-days must not be negative")
			}

			cleaner := maintenance.NewCleaner(db, maintenance.WithLogRetentionDays(days))
			if err := cleaner.RunOnce(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "housekeeping complete (log retention: %d days)\n", days)
			return nil
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Override maintenance.log_retention_days; 0 keeps logs forever")
	return cmd
}
