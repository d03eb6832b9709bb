package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/metrics"
)

// SMTPSettings capture the provider connection used by the direct (server/script) transport.
type SMTPSettings struct {
	Host               string
	Port               int
	Username           string
	Password           string
	SSL                bool
	InsecureSkipVerify bool
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpSender struct {
	cfg      SMTPSettings
	from     string
	fromName string
	dialer   smtpDialer
	now      func() time.Time
	log      *zap.Logger
}

// NewSMTPSender returns a Sender that talks to the provider directly over SMTP.
func NewSMTPSender(cfg SMTPSettings, from, fromName string) (Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in for self-signed relays
	}

	return &smtpSender{
		cfg:      cfg,
		from:     from,
		fromName: fromName,
		dialer:   d,
		now:      time.Now,
		log:      logger.WithModule("mail"),
	}, nil
}

func (s *smtpSender) Transport() string { return TransportSMTP }

func (s *smtpSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	prepared, rejected, err := prepare(msg, s.from)
	if err != nil {
		return Receipt{Rejected: rejected}, err
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Receipt{Rejected: rejected}, err
		}
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDDomain(prepared.From))
	m := s.buildMessage(prepared, id)

	if err := s.dialer.DialAndSend(m); err != nil {
		metrics.EmailDeliveries.WithLabelValues(TransportSMTP, "failure").Inc()
		s.log.Warn("smtp delivery failed",
			zap.String("host", s.cfg.Host),
			zap.Int("recipients", len(prepared.To)),
			zap.Error(err),
		)
		return Receipt{Rejected: rejected}, fmt.Errorf("mail: smtp send: %w", err)
	}

	metrics.EmailDeliveries.WithLabelValues(TransportSMTP, "success").Inc()
	s.log.Debug("smtp delivery accepted", zap.String("message_id", id), zap.Int("recipients", len(prepared.To)))

	return Receipt{
		ID:        id,
		Transport: TransportSMTP,
		Accepted:  prepared.To,
		Rejected:  rejected,
		SentAt:    s.now().UTC(),
	}, nil
}

func (s *smtpSender) buildMessage(msg Message, id string) *gomail.Message {
	m := gomail.NewMessage()
	if s.fromName != "" && strings.EqualFold(msg.From, s.from) {
		m.SetAddressHeader("From", msg.From, s.fromName)
	} else {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)

	if strings.TrimSpace(msg.Text) != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	return m
}

func messageIDDomain(from string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		return strings.Trim(from[at+1:], "> ")
	}
	return "releasetrack.local"
}
