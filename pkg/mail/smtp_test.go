package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return d.err
}

func newTestSMTPSender(t *testing.T, dialer smtpDialer) *smtpSender {
	t.Helper()

	sender, err := NewSMTPSender(SMTPSettings{Host: "smtp.example.com", Port: 2525}, "releases@example.com", "ReleaseTrack")
	require.NoError(t, err)

	s := sender.(*smtpSender)
	s.dialer = dialer
	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestSMTPSenderSendsValidRecipientsOnly(t *testing.T) {
	dialer := &recordingDialer{}
	sender := newTestSMTPSender(t, dialer)

	receipt, err := sender.Send(context.Background(), Message{
		To:      []string{"dev@example.com", "not-an-address", "qa@example.com"},
		Subject: "Ticket T1 status changed",
		HTML:    "<p>Released</p>",
		Text:    "Released",
	})
	require.NoError(t, err)

	require.Len(t, dialer.messages, 1)
	require.Equal(t, []string{"dev@example.com", "qa@example.com"}, dialer.messages[0].GetHeader("To"))
	require.Equal(t, []string{"Ticket T1 status changed"}, dialer.messages[0].GetHeader("Subject"))

	require.Equal(t, TransportSMTP, receipt.Transport)
	require.Equal(t, []string{"dev@example.com", "qa@example.com"}, receipt.Accepted)
	require.Equal(t, []string{"not-an-address"}, receipt.Rejected)
	require.Contains(t, receipt.ID, "@example.com>")
	require.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), receipt.SentAt)
}

func TestSMTPSenderReportsProviderFailure(t *testing.T) {
	dialer := &recordingDialer{err: errors.New("535 authentication failed")}
	sender := newTestSMTPSender(t, dialer)

	_, err := sender.Send(context.Background(), Message{
		To:      []string{"dev@example.com"},
		Subject: "s",
		HTML:    "<p>x</p>",
	})
	require.ErrorContains(t, err, "535 authentication failed")
	require.Len(t, dialer.messages, 1, "exactly one attempt, no retry")
}

func TestSMTPSenderSkipsDialWithoutRecipients(t *testing.T) {
	dialer := &recordingDialer{}
	sender := newTestSMTPSender(t, dialer)

	_, err := sender.Send(context.Background(), Message{To: []string{"", "nobody"}, Subject: "s", HTML: "<p>x</p>"})
	require.ErrorIs(t, err, ErrNoRecipients)
	require.Empty(t, dialer.messages)
}

func TestSMTPSenderHonoursCancelledContext(t *testing.T) {
	dialer := &recordingDialer{}
	sender := newTestSMTPSender(t, dialer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.Send(ctx, Message{To: []string{"dev@example.com"}, Subject: "s", HTML: "<p>x</p>"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, dialer.messages)
}

func TestMessageIDDomain(t *testing.T) {
	require.Equal(t, "example.com", messageIDDomain("releases@example.com"))
	require.Equal(t, "releasetrack.local", messageIDDomain("broken"))
}
