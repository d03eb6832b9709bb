package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/database/testutil"
	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/internal/notifications"
)

type recordingNotifier struct {
	mu        sync.Mutex
	statuses  []notifications.StatusChangeEvent
	assignees []notifications.AssigneeChangeEvent
	comments  []notifications.CommentEvent
	result    notifications.Result
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{result: notifications.Result{Success: true}}
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, event notifications.StatusChangeEvent) notifications.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, event)
	return n.result
}

func (n *recordingNotifier) NotifyAssigneeChange(_ context.Context, event notifications.AssigneeChangeEvent) notifications.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assignees = append(n.assignees, event)
	return n.result
}

func (n *recordingNotifier) NotifyComment(_ context.Context, event notifications.CommentEvent) notifications.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.comments = append(n.comments, event)
	return n.result
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func createTestUser(t *testing.T, db *gorm.DB, first, email string) models.User {
	t.Helper()
	user := models.User{FirstName: first, LastName: "Tester", Email: email}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func strPtr(value string) *string { return &value }

func boolPtr(value bool) *bool { return &value }

func statusPtr(value models.TicketStatus) *models.TicketStatus { return &value }
