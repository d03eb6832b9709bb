package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			_, closeFn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Database.ConnectionConfig().Driver)
			return nil
		},
	}
}
