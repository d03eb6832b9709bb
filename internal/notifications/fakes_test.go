package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

type fakeDirectory struct {
	users map[string]models.User
	err   error
	calls int
}

func newFakeDirectory(users ...models.User) *fakeDirectory {
	dir := &fakeDirectory{users: make(map[string]models.User, len(users))}
	for _, user := range users {
		dir.users[user.ID] = user
	}
	return dir
}

func (d *fakeDirectory) UsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	var out []models.User
	// Reverse order to prove callers do not depend on directory ordering.
	for i := len(ids) - 1; i >= 0; i-- {
		if user, ok := d.users[ids[i]]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

type fakePreferences struct {
	prefs map[string]models.NotificationPreference
	err   error
}

func (p *fakePreferences) PreferencesFor(_ context.Context, ids []string) (map[string]models.NotificationPreference, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]models.NotificationPreference)
	for _, id := range ids {
		if pref, ok := p.prefs[id]; ok {
			out[id] = pref
		}
	}
	return out, nil
}

type fakeSender struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
	panicMsg string
}

func (s *fakeSender) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	s.messages = append(s.messages, msg)
	if s.err != nil {
		return mail.Receipt{}, s.err
	}
	return mail.Receipt{
		ID:        "msg-" + msg.Subject,
		Transport: "fake",
		Accepted:  msg.To,
		SentAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (s *fakeSender) Transport() string { return "fake" }

func (s *fakeSender) sent() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.messages...)
}

type fakeAudit struct {
	entries []Entry
}

func (a *fakeAudit) Record(_ context.Context, entry Entry) {
	a.entries = append(a.entries, entry)
}

var errDirectory = errors.New("directory unavailable")

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func strPtr(value string) *string { return &value }

func user(id, first, email string) models.User {
	return models.User{BaseModel: models.BaseModel{ID: id}, FirstName: first, LastName: "Tester", Email: email}
}

func optOut(userID string, kind models.NotificationKind) models.NotificationPreference {
	pref := models.DefaultNotificationPreference(userID)
	switch kind {
	case models.KindStatusChange:
		pref.NotifyOnStatusChange = false
	case models.KindAssigneeChange:
		pref.NotifyOnAssigneeChange = false
	case models.KindComment:
		pref.NotifyOnComment = false
	case models.KindMention:
		pref.NotifyOnMention = false
	}
	return pref
}
