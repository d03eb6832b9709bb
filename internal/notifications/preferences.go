package notifications

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/mail"
	"github.com/charlesng35/releasetrack/pkg/metrics"
)

// PreferenceStore returns stored preferences keyed by user id. Users without a row are
// absent from the map.
type PreferenceStore interface {
	PreferencesFor(ctx context.Context, userIDs []string) (map[string]models.NotificationPreference, error)
}

// PreferenceFilter removes users who opted out of a notification kind or whose
// address cannot receive mail.
type PreferenceFilter struct {
	store PreferenceStore
	log   *zap.Logger
}

// NewPreferenceFilter constructs a PreferenceFilter.
func NewPreferenceFilter(store PreferenceStore) (*PreferenceFilter, error) {
	if store == nil {
		return nil, errors.New("preference filter: store is required")
	}
	return &PreferenceFilter{store: store, log: logger.WithModule("notifications")}, nil
}

// Filter keeps the users eligible for kind, preserving order. A store failure is
// logged and treated as "everyone opted in".
func (f *PreferenceFilter) Filter(ctx context.Context, users []models.User, kind models.NotificationKind) []models.User {
	if len(users) == 0 {
		return nil
	}

	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}

	prefs, err := f.store.PreferencesFor(ensureContext(ctx), ids)
	if err != nil {
		f.log.Warn("preference lookup failed, notifying all candidates",
			zap.String("kind", string(kind)),
			zap.Int("candidates", len(users)),
			zap.Error(err),
		)
		prefs = nil
	}

	out := make([]models.User, 0, len(users))
	for _, user := range users {
		pref, ok := prefs[user.ID]
		if !ok {
			pref = models.DefaultNotificationPreference(user.ID)
		}
		if !pref.Allows(kind) {
			metrics.NotificationRecipients.WithLabelValues("opted_out").Inc()
			continue
		}
		if !mail.ValidAddress(user.Email) {
			metrics.NotificationRecipients.WithLabelValues("invalid_email").Inc()
			f.log.Debug("skipping recipient without a deliverable address",
				zap.String("user_id", user.ID),
				zap.String("kind", string(kind)),
			)
			continue
		}
		out = append(out, user)
	}
	return out
}
