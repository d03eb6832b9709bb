package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/metrics"
)

// SendEmailPath is the relay endpoint the client posts to.
const SendEmailPath = "/api/send-email"

// RelaySettings configure the HTTP relay transport.
type RelaySettings struct {
	URL     string
	Timeout time.Duration
}

// RelayError reports a non-2xx answer from the relay.
type RelayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RelayError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("mail: relay returned %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("mail: relay returned %d: %s", e.StatusCode, msg)
}

// relayEnvelope mirrors the relay response body. Error is kept raw because older relays
// answer with a bare string instead of an object. Success is nil when the body omits it.
type relayEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type relayClient struct {
	endpoint string
	from     string
	http     *http.Client
	now      func() time.Time
	log      *zap.Logger
}

// NewRelayClient returns a Sender that forwards messages to a relay process.
func NewRelayClient(cfg RelaySettings, from string) (Sender, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("mail: relay url is required")
	}
	return &relayClient{
		endpoint: base + SendEmailPath,
		from:     from,
		http:     &http.Client{Timeout: cfg.Timeout},
		now:      time.Now,
		log:      logger.WithModule("mail"),
	}, nil
}

func (c *relayClient) Transport() string { return TransportRelay }

func (c *relayClient) Send(ctx context.Context, msg Message) (Receipt, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	prepared, rejected, err := prepare(msg, c.from)
	if err != nil {
		return Receipt{Rejected: rejected}, err
	}

	body, err := json.Marshal(prepared)
	if err != nil {
		return Receipt{Rejected: rejected}, fmt.Errorf("mail: encode relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{Rejected: rejected}, fmt.Errorf("mail: build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.EmailDeliveries.WithLabelValues(TransportRelay, "failure").Inc()
		c.log.Warn("relay request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return Receipt{Rejected: rejected}, fmt.Errorf("mail: relay request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var envelope relayEnvelope
	decodeErr := json.Unmarshal(raw, &envelope)

	rejectedByBody := decodeErr == nil && envelope.Success != nil && !*envelope.Success
	if resp.StatusCode < 200 || resp.StatusCode > 299 || rejectedByBody {
		metrics.EmailDeliveries.WithLabelValues(TransportRelay, "failure").Inc()
		relayErr := &RelayError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			relayErr.Code, relayErr.Message = decodeRelayError(envelope.Error)
		}
		c.log.Warn("relay rejected message", zap.Int("status", resp.StatusCode), zap.String("message", relayErr.Message))
		return Receipt{Rejected: rejected}, relayErr
	}

	receipt := Receipt{
		Transport: TransportRelay,
		Accepted:  prepared.To,
		Rejected:  rejected,
		SentAt:    c.now().UTC(),
	}
	if decodeErr == nil && len(envelope.Data) > 0 {
		var upstream Receipt
		if err := json.Unmarshal(envelope.Data, &upstream); err == nil && upstream.ID != "" {
			receipt.ID = upstream.ID
		}
	}

	metrics.EmailDeliveries.WithLabelValues(TransportRelay, "success").Inc()
	return receipt, nil
}

func decodeRelayError(raw json.RawMessage) (code, message string) {
	if len(raw) == 0 {
		return "", ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return "", asString
	}
	var asObject struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.Code, asObject.Message
	}
	return "", string(raw)
}
