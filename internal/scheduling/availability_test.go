package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundrobin/backend/internal/calendar"
	"github.com/roundrobin/backend/internal/models"
)

func newAvailabilityFixture(t *testing.T) (*AvailabilityService, *fakeSyncStore, *fakeProvider) {
	t.Helper()
	tokens, store, provider, _ := newTokenFixture(t, time.Now().Add(time.Hour))
	svc := &AvailabilityService{
		Tokens:      tokens,
		Hours:       calendar.DefaultBusinessHours(),
		Granularity: time.Hour,
		Logger:      zerolog.Nop(),
	}
	return svc, store, provider
}

func TestAvailableSlots_ExcludesBusyHours(t *testing.T) {
	svc, store, provider := newAvailabilityFixture(t)

	// Tuesday 2026-01-06, 10:00-10:30 is busy.
	busyStart := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	provider.events = []calendar.Event{{ID: "busy", Start: busyStart, End: busyStart.Add(30 * time.Minute)}}

	dayStart := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	slots, err := svc.AvailableSlots(context.Background(), "u1", dayStart, dayStart.AddDate(0, 0, 1), 30*time.Minute)
	require.NoError(t, err)

	require.Len(t, slots, 7)
	for _, s := range slots {
		assert.NotEqual(t, 10, s.Start.Hour())
	}

	stored, _, _ := store.SyncByID(context.Background(), "sync-1")
	require.NotNil(t, stored.LastSyncAt)
	assert.Nil(t, stored.LastError)
}

func TestAvailableSlots_ProviderFailureRecorded(t *testing.T) {
	svc, store, provider := newAvailabilityFixture(t)
	provider.getErr = errors.New("network unreachable")

	_, err := svc.AvailableSlots(context.Background(), "u1", time.Now(), time.Now().AddDate(0, 0, 1), 30*time.Minute)
	require.Error(t, err)

	stored, _, _ := store.SyncByID(context.Background(), "sync-1")
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "network unreachable")
}

func TestAvailableSlots_NoCalendar(t *testing.T) {
	svc, store, _ := newAvailabilityFixture(t)
	store.syncs = map[string]models.CalendarSync{}

	_, err := svc.AvailableSlots(context.Background(), "u1", time.Now(), time.Now().AddDate(0, 0, 1), 30*time.Minute)
	assert.True(t, errors.Is(err, ErrNoCalendar))
}

func TestSyncStatus(t *testing.T) {
	svc, store, _ := newAvailabilityFixture(t)

	status, err := svc.SyncStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.False(t, status.Shared)
	assert.Equal(t, models.ProviderGoogle, status.Provider)
	assert.Equal(t, "u1@example.com", status.Email)

	status, err = svc.SyncStatus(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.True(t, status.Shared)

	store.syncs = map[string]models.CalendarSync{}
	status, err = svc.SyncStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, status.Connected)
}
