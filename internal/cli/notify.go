package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/app"
	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/internal/notifications"
	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

type notifyOptions struct {
	ticketID string
	actorID  string
	from     string
	previous string
}

func newNotifyCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Replay ticket notifications",
		Long:  `Re-run the notification pipeline for a stored ticket. Preferences, the email kill switch and the notification log apply as they do for live changes.`,
	}

	cmd.AddCommand(
		newNotifyStatusCommand(opts),
		newNotifyAssigneeCommand(opts),
	)
	return cmd
}

func newNotifyStatusCommand(opts *rootOptions) *cobra.Command {
	local := &notifyOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Send the status change email for a ticket's current status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := local.validateIDs(); err != nil {
				return err
			}
			from := models.TicketStatus(strings.TrimSpace(local.from))
			if from != "" && !from.Valid() {
				return fmt.Errorf("unknown status %q", from)
			}

			return withDispatcher(opts, func(db *gorm.DB, dispatcher *notifications.Dispatcher) error {
				ticket, err := loadTicket(cmd, db, local.ticketID)
				if err != nil {
					return err
				}
				result := dispatcher.NotifyStatusChange(cmd.Context(), notifications.StatusChangeEvent{
					Ticket:    *ticket,
					ActorID:   local.actorID,
					OldStatus: from,
					NewStatus: ticket.Status,
				})
				return printResult(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&local.ticketID, "ticket", "", "Ticket id")
	cmd.Flags().StringVar(&local.actorID, "actor", "", "User id credited with the change")
	cmd.Flags().StringVar(&local.from, "from", "", "Previous status shown in the email")
	_ = cmd.MarkFlagRequired("ticket")

	return cmd
}

func newNotifyAssigneeCommand(opts *rootOptions) *cobra.Command {
	local := &notifyOptions{}

	cmd := &cobra.Command{
		Use:   "assignee",
		Short: "Send the assignment email for a ticket's current assignee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := local.validateIDs(); err != nil {
				return err
			}
			return withDispatcher(opts, func(db *gorm.DB, dispatcher *notifications.Dispatcher) error {
				ticket, err := loadTicket(cmd, db, local.ticketID)
				if err != nil {
					return err
				}
				result := dispatcher.NotifyAssigneeChange(cmd.Context(), notifications.AssigneeChangeEvent{
					Ticket:             *ticket,
					ActorID:            local.actorID,
					PreviousAssigneeID: local.previous,
				})
				return printResult(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&local.ticketID, "ticket", "", "Ticket id")
	cmd.Flags().StringVar(&local.actorID, "actor", "", "User id credited with the change")
	cmd.Flags().StringVar(&local.previous, "previous", "", "Previous assignee id")
	_ = cmd.MarkFlagRequired("ticket")

	return cmd
}

// validateIDs rejects user ids that could never match a stored user.
func (o *notifyOptions) validateIDs() error {
	for flag, value := range map[string]string{"actor": o.actorID, "previous": o.previous} {
		if value = strings.TrimSpace(value); value != "" && !models.IsValidID(value) {
			return fmt.Errorf("--%s %q is not a valid user id", flag, value)
		}
	}
	return nil
}

func withDispatcher(opts *rootOptions, fn func(*gorm.DB, *notifications.Dispatcher) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	db, closeFn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	sender, err := mail.NewSender(cfg.Email.Settings())
	if err != nil {
		return err
	}

	dispatcher, err := app.NewDispatcher(db, sender, cfg.Notifications, nil)
	if err != nil {
		return err
	}
	return fn(db, dispatcher)
}

func loadTicket(cmd *cobra.Command, db *gorm.DB, id string) (*models.Ticket, error) {
	svc, err := services.NewTicketService(db, nil)
	if err != nil {
		return nil, err
	}
	return svc.GetByID(cmd.Context(), id)
}

func printResult(out io.Writer, result notifications.Result) error {
	switch {
	case result.Success:
		for _, delivery := range result.Data {
			fmt.Fprintf(out, "%s: sent to %d recipient(s) (%s)\n", delivery.Kind, len(delivery.RecipientIDs), strings.Join(delivery.Receipt.Accepted, ","))
		}
		return nil
	case result.Skipped():
		fmt.Fprintf(out, "skipped: %s\n", result.ErrorMessage())
		return nil
	default:
		return fmt.Errorf("notification failed: %s", result.ErrorMessage())
	}
}
