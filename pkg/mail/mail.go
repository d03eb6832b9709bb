package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Transport names accepted by NewSender.
const (
	TransportSMTP     = "smtp"
	TransportRelay    = "relay"
	TransportDisabled = "disabled"
)

var (
	// ErrDisabled signals that outbound email is switched off via configuration.
	ErrDisabled = errors.New("mail: delivery disabled")
	// ErrNoRecipients is returned when no valid recipient remains after address filtering.
	ErrNoRecipients = errors.New("mail: at least one valid recipient is required")
	// ErrNoSender is returned when neither the message nor the settings carry a from address.
	ErrNoSender = errors.New("mail: sender address is required")
	// ErrEmptyContent is returned for messages without subject or HTML body.
	ErrEmptyContent = errors.New("mail: subject and html body are required")
)

// Message represents an outbound email.
type Message struct {
	From    string   `json:"from,omitempty"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Receipt describes an accepted delivery.
type Receipt struct {
	ID        string    `json:"id"`
	Transport string    `json:"transport"`
	Accepted  []string  `json:"accepted"`
	Rejected  []string  `json:"rejected,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// Sender submits a rendered email to the outbound provider. Implementations make
// exactly one attempt per call.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
	Transport() string
}

// Settings select and configure the Sender implementation.
type Settings struct {
	Transport string
	From      string
	FromName  string
	SMTP      SMTPSettings
	Relay     RelaySettings
}

// ProviderConfigured reports whether credentials for the selected transport are present.
func (s Settings) ProviderConfigured() bool {
	switch normaliseTransport(s.Transport) {
	case TransportSMTP:
		return strings.TrimSpace(s.SMTP.Host) != "" && strings.TrimSpace(s.SMTP.Password) != ""
	case TransportRelay:
		return strings.TrimSpace(s.Relay.URL) != ""
	default:
		return false
	}
}

// NewSender builds the Sender for the configured transport.
func NewSender(settings Settings) (Sender, error) {
	switch normaliseTransport(settings.Transport) {
	case TransportSMTP:
		return NewSMTPSender(settings.SMTP, settings.From, settings.FromName)
	case TransportRelay:
		return NewRelayClient(settings.Relay, settings.From)
	case TransportDisabled:
		return disabledSender{}, nil
	default:
		return nil, fmt.Errorf("mail: unsupported transport %q", settings.Transport)
	}
}

func normaliseTransport(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return TransportSMTP
	}
	return value
}

// prepare applies the shared pre-flight checks every transport runs before building
// its payload: address filtering, sender fallback and content presence.
func prepare(msg Message, defaultFrom string) (Message, []string, error) {
	valid, rejected := FilterAddresses(msg.To)
	if len(valid) == 0 {
		return msg, rejected, ErrNoRecipients
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = strings.TrimSpace(defaultFrom)
	}
	if from == "" {
		return msg, rejected, ErrNoSender
	}
	if !ValidAddress(from) {
		return msg, rejected, fmt.Errorf("mail: invalid from address %q", from)
	}

	if strings.TrimSpace(msg.Subject) == "" || strings.TrimSpace(msg.HTML) == "" {
		return msg, rejected, ErrEmptyContent
	}

	out := msg
	out.From = from
	out.To = valid
	out.Subject = escapeHeader(msg.Subject)
	return out, rejected, nil
}

func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

type disabledSender struct{}

func (disabledSender) Send(context.Context, Message) (Receipt, error) {
	return Receipt{}, ErrDisabled
}

func (disabledSender) Transport() string { return TransportDisabled }
