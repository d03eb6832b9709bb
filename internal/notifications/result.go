package notifications

import (
	"context"
	"errors"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

var (
	// ErrNoRecipients is reported when resolution and filtering leave nobody to notify.
	ErrNoRecipients = errors.New("notifications: no eligible recipients")
	// ErrDisabled is reported when the email kill switch is off.
	ErrDisabled = errors.New("notifications: email notifications are disabled")
	// ErrInvalidEvent is reported for events missing the ticket identifier.
	ErrInvalidEvent = errors.New("notifications: ticket id is required")
)

// Delivery describes one accepted email.
type Delivery struct {
	Kind         models.NotificationKind `json:"kind"`
	TicketID     string                  `json:"ticket_id"`
	RecipientIDs []string                `json:"recipient_ids"`
	Receipt      mail.Receipt            `json:"receipt"`
}

// Result is the uniform outcome of a notification trigger. Dispatchers never return
// Go errors; failures are carried in Error with Success false.
type Result struct {
	Success bool       `json:"success"`
	Data    []Delivery `json:"data,omitempty"`
	Error   error      `json:"-"`
}

// ErrorMessage returns the failure text or an empty string.
func (r Result) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

// Skipped reports whether nothing was attempted because no recipient qualified
// or notifications are switched off.
func (r Result) Skipped() bool {
	return errors.Is(r.Error, ErrNoRecipients) || errors.Is(r.Error, ErrDisabled)
}

func failure(err error) Result {
	return Result{Success: false, Error: err}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
