package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesng35/releasetrack/pkg/mail"
)

type sendTestOptions struct {
	to      []string
	subject string
	body    string
}

func newSendTestCommand(opts *rootOptions) *cobra.Command {
	local := &sendTestOptions{}

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a test email through the configured transport",
		Long:  `Send a test email using email.transport from the configuration. With the relay transport the message travels through a running server's /api/send-email endpoint.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			sender, err := mail.NewSender(cfg.Email.Settings())
			if err != nil {
				return err
			}

			body := strings.TrimSpace(local.body)
			receipt, err := sender.Send(cmd.Context(), mail.Message{
				To:      local.to,
				Subject: local.subject,
				HTML:    "<p>" + body + "</p>",
				Text:    body,
			})
			if err != nil {
				return fmt.Errorf("send failed via %s: %w", sender.Transport(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sent via %s: id=%s accepted=%s\n", receipt.Transport, receipt.ID, strings.Join(receipt.Accepted, ","))
			if len(receipt.Rejected) > 0 {
				fmt.Fprintf(out, "rejected: %s\n", strings.Join(receipt.Rejected, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&local.to, "to", nil, "Recipient address (repeatable)")
	cmd.Flags().StringVar(&local.subject, "subject", "ReleaseTrack test email", "Subject line")
	cmd.Flags().StringVar(&local.body, "body", "This is a test message from ReleaseTrack.", "Message body")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
