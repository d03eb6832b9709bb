package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/charlesng35/releasetrack/pkg/errors"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/mail"
	"github.com/charlesng35/releasetrack/pkg/response"
	appValidator "github.com/charlesng35/releasetrack/pkg/validator"
)

// errEmailDisabled is returned by the relay when outbound email is switched off.
var errEmailDisabled = appErrors.New("EMAIL_DISABLED", "Email delivery is disabled", http.StatusServiceUnavailable)

// EmailHandler is the relay endpoint: it forwards sends from browser callers to the
// configured provider so the provider key never leaves the server.
type EmailHandler struct {
	sender mail.Sender
	log    *zap.Logger
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject" validate:"required"`
	HTML    string   `json:"html" validate:"required"`
	Text    string   `json:"text"`
}

// NewEmailHandler constructs the relay handler around the provider sender.
func NewEmailHandler(sender mail.Sender) (*EmailHandler, error) {
	if sender == nil {
		return nil, errors.New("email handler: sender is required")
	}
	return &EmailHandler{sender: sender, log: logger.WithModule("relay")}, nil
}

// POST /api/send-email
func (h *EmailHandler) Send(c *gin.Context) {
	var body sendEmailRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.NewValidation("invalid JSON payload"))
		return
	}

	body.Subject = strings.TrimSpace(body.Subject)
	if err := appValidator.ValidateStruct(&body); err != nil {
		response.Error(c, appErrors.NewValidation(formatValidationError(err)))
		return
	}
	if strings.TrimSpace(body.HTML) == "" {
		response.Error(c, appErrors.NewValidation("html is required"))
		return
	}
	if len(body.To) == 0 {
		response.Error(c, appErrors.NewValidation("at least one recipient is required"))
		return
	}

	// The relay refuses the whole request when any address is malformed, unlike the
	// pipeline which drops bad entries and continues.
	valid, rejected := mail.FilterAddresses(body.To)
	if len(rejected) > 0 {
		response.Error(c, appErrors.NewValidation(fmt.Sprintf("invalid recipient address: %q", rejected)))
		return
	}
	if from := strings.TrimSpace(body.From); from != "" && !mail.ValidAddress(from) {
		response.Error(c, appErrors.NewValidation(fmt.Sprintf("invalid from address: %s", from)))
		return
	}

	receipt, err := h.sender.Send(requestContext(c), mail.Message{
		From:    body.From,
		To:      valid,
		Subject: body.Subject,
		HTML:    body.HTML,
		Text:    body.Text,
	})
	if err != nil {
		h.log.Warn("relay send failed",
			zap.Strings("to", valid),
			zap.String("transport", h.sender.Transport()),
			zap.Error(err),
		)
		response.Error(c, sendError(err))
		return
	}

	h.log.Info("relay send accepted",
		zap.String("message_id", receipt.ID),
		zap.Int("recipients", len(receipt.Accepted)),
	)
	response.Success(c, http.StatusOK, receipt)
}

func sendError(err error) error {
	switch {
	case errors.Is(err, mail.ErrNoRecipients), errors.Is(err, mail.ErrNoSender), errors.Is(err, mail.ErrEmptyContent):
		return appErrors.NewValidation(err.Error())
	case errors.Is(err, mail.ErrDisabled):
		return errEmailDisabled
	default:
		return appErrors.NewProvider(err)
	}
}
