package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/releasetrack/internal/database/testutil"
	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

type dispatcherFixture struct {
	dispatcher *Dispatcher
	sender     *fakeSender
	audit      *fakeAudit
	prefs      *fakePreferences
	users      *fakeDirectory
}

func newDispatcherFixture(t *testing.T, mutate func(*DispatcherConfig)) *dispatcherFixture {
	t.Helper()

	fx := &dispatcherFixture{
		sender: &fakeSender{},
		audit:  &fakeAudit{},
		prefs:  &fakePreferences{prefs: map[string]models.NotificationPreference{}},
		users: newFakeDirectory(
			user("U1", "Ana", "ana@example.com"),
			user("U2", "Ben", "ben@example.com"),
			user("U3", "Cy", "cy@example.com"),
			user("U4", "Di", "di@example.com"),
		),
	}

	cfg := DispatcherConfig{
		Sender:       fx.sender,
		Users:        fx.users,
		Preferences:  fx.prefs,
		Audit:        fx.audit,
		ExcludeActor: true,
		Now:          fixedNow,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	dispatcher, err := NewDispatcher(cfg)
	require.NoError(t, err)
	fx.dispatcher = dispatcher
	return fx
}

func sampleTicket() models.Ticket {
	return models.Ticket{
		BaseModel:   models.BaseModel{ID: "T1"},
		Title:       "Login broken",
		Status:      models.StatusReleased,
		AssigneeID:  strPtr("U1"),
		RequesterID: strPtr("U2"),
	}
}

func TestNewDispatcherValidatesDependencies(t *testing.T) {
	_, err := NewDispatcher(DispatcherConfig{})
	require.Error(t, err)

	_, err = NewDispatcher(DispatcherConfig{Sender: &fakeSender{}, Audit: &fakeAudit{}})
	require.Error(t, err)

	_, err = NewDispatcher(DispatcherConfig{Sender: &fakeSender{}, Audit: &fakeAudit{}, Users: newFakeDirectory()})
	require.Error(t, err)
}

func TestNotifyStatusChangeSendsToParticipants(t *testing.T) {
	fx := newDispatcherFixture(t, nil)

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U3",
		OldStatus: models.StatusOpen,
		NewStatus: models.StatusReleased,
	})

	require.True(t, result.Success, result.ErrorMessage())
	require.Len(t, result.Data, 1)
	require.Equal(t, []string{"U1", "U2"}, result.Data[0].RecipientIDs)

	sent := fx.sender.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"ana@example.com", "ben@example.com"}, sent[0].To)
	require.Contains(t, sent[0].HTML, "Cy Tester")

	require.Len(t, fx.audit.entries, 1)
	entry := fx.audit.entries[0]
	require.Equal(t, models.KindStatusChange, entry.Kind)
	require.Equal(t, "T1", entry.TicketID)
	require.Equal(t, "U3", entry.SenderID)
	require.Equal(t, []string{"U1", "U2"}, entry.RecipientIDs)
	require.Equal(t, "Released", entry.Metadata["new_status"])
	require.Equal(t, true, entry.Metadata["success"])
}

func TestNotifyStatusChangeSkipsOptedOutRecipient(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.prefs.prefs["U1"] = optOut("U1", models.KindStatusChange)

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U3",
		OldStatus: models.StatusOpen,
		NewStatus: models.StatusReleased,
	})

	require.True(t, result.Success)
	sent := fx.sender.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"ben@example.com"}, sent[0].To)
	require.Equal(t, []string{"U2"}, fx.audit.entries[0].RecipientIDs)
}

func TestNotifyStatusChangeWithoutRecipients(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.prefs.prefs["U1"] = optOut("U1", models.KindStatusChange)
	fx.prefs.prefs["U2"] = optOut("U2", models.KindStatusChange)

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U3",
		NewStatus: models.StatusReleased,
	})

	require.False(t, result.Success)
	require.ErrorIs(t, result.Error, ErrNoRecipients)
	require.True(t, result.Skipped())
	require.Empty(t, fx.sender.sent())
	require.Empty(t, fx.audit.entries)
}

func TestNotifyStatusChangeExcludesActor(t *testing.T) {
	fx := newDispatcherFixture(t, nil)

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U1",
		NewStatus: models.StatusInQA,
	})

	require.True(t, result.Success)
	require.Equal(t, []string{"ben@example.com"}, fx.sender.sent()[0].To)
}

func TestNotifyStatusChangeProviderFailure(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.sender.err = errors.New("provider rejected")

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U3",
		NewStatus: models.StatusReleased,
	})

	require.False(t, result.Success)
	require.EqualError(t, result.Error, "provider rejected")
	require.Len(t, fx.sender.sent(), 1, "exactly one attempt")
	require.Len(t, fx.audit.entries, 1)
	require.Equal(t, false, fx.audit.entries[0].Metadata["success"])
	require.Equal(t, "provider rejected", fx.audit.entries[0].Metadata["error"])
}

func TestNotifyStatusChangeRelayNon2xxReportsFailure(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"PROVIDER_ERROR","message":"upstream down"}}`))
	}))
	t.Cleanup(server.Close)

	relay, err := mail.NewRelayClient(mail.RelaySettings{URL: server.URL}, "noreply@example.com")
	require.NoError(t, err)

	fx := newDispatcherFixture(t, func(cfg *DispatcherConfig) {
		cfg.Sender = relay
	})

	var result Result
	require.NotPanics(t, func() {
		result = fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
			Ticket:    sampleTicket(),
			ActorID:   "U3",
			NewStatus: models.StatusReleased,
		})
	})

	require.False(t, result.Success)
	require.Error(t, result.Error)
	var relayErr *mail.RelayError
	require.ErrorAs(t, result.Error, &relayErr)
	require.Equal(t, http.StatusBadGateway, relayErr.StatusCode)
	require.Equal(t, 1, hits)
	require.Len(t, fx.audit.entries, 1)
	require.Equal(t, mail.TransportRelay, fx.audit.entries[0].Metadata["transport"])
}

func TestNotifyStatusChangeAuditFailureStillSucceeds(t *testing.T) {
	db := testutil.MustOpenTestDB(t) // no migrations: every log write fails
	auditor, err := NewAuditor(db)
	require.NoError(t, err)

	fx := newDispatcherFixture(t, func(cfg *DispatcherConfig) {
		cfg.Audit = auditor
	})

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U3",
		NewStatus: models.StatusReleased,
	})

	require.True(t, result.Success)
	require.Len(t, fx.sender.sent(), 1)
}

func TestNotifyStatusChangeWritesAuditRow(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	auditor, err := NewAuditor(db)
	require.NoError(t, err)

	fx := newDispatcherFixture(t, func(cfg *DispatcherConfig) {
		cfg.Audit = auditor
	})

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		ActorID:   "U3",
		OldStatus: models.StatusOpen,
		NewStatus: models.StatusReleased,
	})
	require.True(t, result.Success)

	var rows []models.NotificationLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "fake", rows[0].Metadata["transport"])
}

func TestNotifyStatusChangeDisabled(t *testing.T) {
	fx := newDispatcherFixture(t, func(cfg *DispatcherConfig) {
		cfg.Enabled = func(context.Context) (bool, error) { return false, nil }
	})

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		NewStatus: models.StatusReleased,
	})

	require.False(t, result.Success)
	require.ErrorIs(t, result.Error, ErrDisabled)
	require.Empty(t, fx.sender.sent())
	require.Empty(t, fx.audit.entries)
}

func TestNotifyStatusChangeSettingsErrorFailsOpen(t *testing.T) {
	fx := newDispatcherFixture(t, func(cfg *DispatcherConfig) {
		cfg.Enabled = func(context.Context) (bool, error) { return false, errors.New("settings table missing") }
	})

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		NewStatus: models.StatusReleased,
	})

	require.True(t, result.Success)
}

func TestNotifyStatusChangeRequiresTicketID(t *testing.T) {
	fx := newDispatcherFixture(t, nil)

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{})
	require.ErrorIs(t, result.Error, ErrInvalidEvent)
	require.Empty(t, fx.sender.sent())
}

func TestNotifyStatusChangeDirectoryFailure(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.users.err = errDirectory

	result := fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
		Ticket:    sampleTicket(),
		NewStatus: models.StatusReleased,
	})

	require.False(t, result.Success)
	require.ErrorIs(t, result.Error, errDirectory)
	require.False(t, result.Skipped())
	require.Empty(t, fx.sender.sent())
}

func TestNotifyStatusChangeRecoversPanics(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.sender.panicMsg = "boom"

	var result Result
	require.NotPanics(t, func() {
		result = fx.dispatcher.NotifyStatusChange(context.Background(), StatusChangeEvent{
			Ticket:    sampleTicket(),
			ActorID:   "U3",
			NewStatus: models.StatusReleased,
		})
	})
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage(), "boom")
}

func TestNotifyAssigneeChangeIncludesPreviousAssignee(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	ticket := sampleTicket()
	ticket.AssigneeID = strPtr("U4")

	result := fx.dispatcher.NotifyAssigneeChange(context.Background(), AssigneeChangeEvent{
		Ticket:             ticket,
		ActorID:            "U3",
		PreviousAssigneeID: "U1",
	})

	require.True(t, result.Success)
	require.Equal(t, []string{"U4", "U2", "U1"}, result.Data[0].RecipientIDs)

	sent := fx.sender.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Subject, "assigned to Di Tester")
	require.Contains(t, sent[0].HTML, "Ana Tester")
	require.Equal(t, "U1", fx.audit.entries[0].Metadata["old_assignee_id"])
	require.Equal(t, "U4", fx.audit.entries[0].Metadata["new_assignee_id"])
}

func TestNotifyAssigneeChangeToUnassigned(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	ticket := sampleTicket()
	ticket.AssigneeID = nil

	result := fx.dispatcher.NotifyAssigneeChange(context.Background(), AssigneeChangeEvent{
		Ticket:             ticket,
		ActorID:            "U3",
		PreviousAssigneeID: "U1",
	})

	require.True(t, result.Success)
	require.Equal(t, []string{"U2", "U1"}, result.Data[0].RecipientIDs)
	require.Contains(t, fx.sender.sent()[0].HTML, "Unassigned")
}

func TestNotifyCommentSendsMentionAndCommentEmails(t *testing.T) {
	fx := newDispatcherFixture(t, nil)

	result := fx.dispatcher.NotifyComment(context.Background(), CommentEvent{
		Ticket:  sampleTicket(),
		ActorID: "U3",
		Comment: models.Comment{
			BaseModel: models.BaseModel{ID: "C1"},
			TicketID:  "T1",
			Content:   "Hey @Di, see **logs**",
			Mentions:  []string{"U4", "U1"},
		},
	})

	require.True(t, result.Success, result.ErrorMessage())
	require.Len(t, result.Data, 2)
	require.Equal(t, models.KindMention, result.Data[0].Kind)
	require.Equal(t, []string{"U4", "U1"}, result.Data[0].RecipientIDs)
	require.Equal(t, models.KindComment, result.Data[1].Kind)
	require.Equal(t, []string{"U2"}, result.Data[1].RecipientIDs)

	sent := fx.sender.sent()
	require.Len(t, sent, 2)
	require.Contains(t, sent[0].Subject, "mentioned you")
	require.Contains(t, sent[1].Subject, "New comment")
	require.Len(t, fx.audit.entries, 2)
}

func TestNotifyCommentMentionOptOutDoesNotBlockComment(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.prefs.prefs["U4"] = optOut("U4", models.KindMention)

	result := fx.dispatcher.NotifyComment(context.Background(), CommentEvent{
		Ticket:  sampleTicket(),
		ActorID: "U3",
		Comment: models.Comment{TicketID: "T1", Content: "ping", Mentions: []string{"U4"}},
	})

	require.True(t, result.Success)
	require.Len(t, result.Data, 1)
	require.Equal(t, models.KindComment, result.Data[0].Kind)
	require.Equal(t, []string{"U1", "U2"}, result.Data[0].RecipientIDs)
}

func TestNotifyCommentMentionedParticipantOptedOutOfMentions(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.prefs.prefs["U1"] = optOut("U1", models.KindMention)

	result := fx.dispatcher.NotifyComment(context.Background(), CommentEvent{
		Ticket:  sampleTicket(),
		ActorID: "U3",
		Comment: models.Comment{TicketID: "T1", Content: "ping", Mentions: []string{"U1", "U4"}},
	})

	require.True(t, result.Success, result.ErrorMessage())
	require.Len(t, result.Data, 2)
	require.Equal(t, []string{"U4"}, result.Data[0].RecipientIDs)
	require.Equal(t, models.KindComment, result.Data[1].Kind)
	require.Equal(t, []string{"U1", "U2"}, result.Data[1].RecipientIDs)

	sent := fx.sender.sent()
	require.Len(t, sent, 2)
	require.Equal(t, []string{"di@example.com"}, sent[0].To)
	require.ElementsMatch(t, []string{"ana@example.com", "ben@example.com"}, sent[1].To)
}

func TestNotifyCommentWithoutAnyRecipients(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	ticket := sampleTicket()
	ticket.AssigneeID = nil
	ticket.RequesterID = strPtr("U3")

	result := fx.dispatcher.NotifyComment(context.Background(), CommentEvent{
		Ticket:  ticket,
		ActorID: "U3",
		Comment: models.Comment{TicketID: "T1", Content: "note to self"},
	})

	require.False(t, result.Success)
	require.ErrorIs(t, result.Error, ErrNoRecipients)
	require.Empty(t, fx.sender.sent())
}

func TestNotifyCommentPartialFailure(t *testing.T) {
	fx := newDispatcherFixture(t, nil)
	fx.sender.err = errors.New("quota exceeded")

	result := fx.dispatcher.NotifyComment(context.Background(), CommentEvent{
		Ticket:  sampleTicket(),
		ActorID: "U3",
		Comment: models.Comment{TicketID: "T1", Content: "ping", Mentions: []string{"U4"}},
	})

	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage(), "quota exceeded")
	require.Len(t, fx.sender.sent(), 2)
	require.Len(t, fx.audit.entries, 2)
}
