package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesng35/releasetrack/internal/services"
)

func newEmailNotificationsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "email-notifications [on|off]",
		Short:     "Show or toggle the global email notification switch",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			db, closeFn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			svc, err := services.NewSettingsService(db)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				var enabled bool
				switch strings.ToLower(strings.TrimSpace(args[0])) {
				case "on", "true", "enable":
					enabled = true
				case "off", "false", "disable":
					enabled = false
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				if err := svc.SetEmailNotificationsEnabled(cmd.Context(), enabled); err != nil {
					return err
				}
			}

			enabled, err := svc.EmailNotificationsEnabled(cmd.Context())
			if err != nil {
				return err
			}
			state := "off"
			if enabled {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "email notifications: %s\n", state)
			return nil
		},
	}
}
