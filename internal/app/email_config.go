package app

import (
	"strings"

	"github.com/charlesng35/releasetrack/pkg/mail"
)

// Settings converts EmailConfig to the mail package representation.
func (c EmailConfig) Settings() mail.Settings {
	return mail.Settings{
		Transport: strings.ToLower(strings.TrimSpace(c.Transport)),
		From:      strings.TrimSpace(c.From),
		FromName:  strings.TrimSpace(c.FromName),
		SMTP: mail.SMTPSettings{
			Host:               strings.TrimSpace(c.SMTP.Host),
			Port:               c.SMTP.Port,
			Username:           strings.TrimSpace(c.SMTP.Username),
			Password:           c.SMTP.Password,
			SSL:                c.SMTP.SSL,
			InsecureSkipVerify: c.SMTP.InsecureSkipVerify,
		},
		Relay: mail.RelaySettings{
			URL:     strings.TrimSpace(c.Relay.URL),
			Timeout: c.Relay.Timeout,
		},
	}
}
