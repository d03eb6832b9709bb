package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/releasetrack/internal/models"
)

func TestNewPreferenceFilterRequiresStore(t *testing.T) {
	_, err := NewPreferenceFilter(nil)
	require.Error(t, err)
}

func TestPreferenceFilterMissingRowMeansOptedIn(t *testing.T) {
	filter, err := NewPreferenceFilter(&fakePreferences{})
	require.NoError(t, err)

	users := []models.User{user("U1", "Ana", "ana@example.com")}
	kinds := []models.NotificationKind{
		models.KindStatusChange,
		models.KindAssigneeChange,
		models.KindComment,
		models.KindMention,
	}
	for _, kind := range kinds {
		require.Len(t, filter.Filter(context.Background(), users, kind), 1, kind)
	}
}

func TestPreferenceFilterSkipsOptedOutUsers(t *testing.T) {
	store := &fakePreferences{prefs: map[string]models.NotificationPreference{
		"U1": optOut("U1", models.KindStatusChange),
	}}
	filter, err := NewPreferenceFilter(store)
	require.NoError(t, err)

	users := []models.User{
		user("U1", "Ana", "ana@example.com"),
		user("U2", "Ben", "ben@example.com"),
	}

	kept := filter.Filter(context.Background(), users, models.KindStatusChange)
	require.Len(t, kept, 1)
	require.Equal(t, "U2", kept[0].ID)

	kept = filter.Filter(context.Background(), users, models.KindComment)
	require.Len(t, kept, 2)
}

func TestPreferenceFilterFailsOpen(t *testing.T) {
	store := &fakePreferences{err: errors.New("store down")}
	filter, err := NewPreferenceFilter(store)
	require.NoError(t, err)

	users := []models.User{user("U1", "Ana", "ana@example.com"), user("U2", "Ben", "ben@example.com")}
	require.Len(t, filter.Filter(context.Background(), users, models.KindMention), 2)
}

func TestPreferenceFilterDropsUndeliverableAddresses(t *testing.T) {
	filter, err := NewPreferenceFilter(&fakePreferences{})
	require.NoError(t, err)

	users := []models.User{
		user("U1", "Ana", ""),
		user("U2", "Ben", "   "),
		user("U3", "Cy", "not-an-address"),
		user("U4", "Di", "di@example.com"),
	}
	kept := filter.Filter(context.Background(), users, models.KindComment)
	require.Len(t, kept, 1)
	require.Equal(t, "U4", kept[0].ID)
}

func TestPreferenceFilterEmptyInput(t *testing.T) {
	filter, err := NewPreferenceFilter(&fakePreferences{})
	require.NoError(t, err)

	require.Empty(t, filter.Filter(context.Background(), nil, models.KindComment))
}
