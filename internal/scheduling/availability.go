package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/roundrobin/backend/internal/calendar"
)

// AvailabilityService computes open meeting slots against the user's
// (or the shared fallback's) external calendar.
type AvailabilityService struct {
	Tokens      *TokenManager
	Hours       calendar.BusinessHours
	Granularity time.Duration
	Logger      zerolog.Logger
}

func (s *AvailabilityService) AvailableSlots(ctx context.Context, userID string, start, end time.Time, duration time.Duration) ([]calendar.TimeSlot, error) {
	sess, err := s.Tokens.Session(ctx, userID)
	if err != nil {
		return nil, err
	}

	events, err := sess.Provider.GetEvents(ctx, sess.Credentials, start, end)
	if err != nil {
		s.Tokens.RecordError(ctx, sess.SyncID, err)
		return nil, err
	}
	s.Tokens.MarkSynced(ctx, sess.SyncID)

	return calendar.AvailableSlots(events, start, end, duration, s.Hours, s.Granularity), nil
}

// SyncStatus reports the connection state surfaced to the dashboard.
type SyncStatus struct {
	Connected  bool       `json:"connected"`
	Shared     bool       `json:"shared,omitempty"`
	Provider   string     `json:"provider,omitempty"`
	Email      string     `json:"email,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	LastError  *string    `json:"last_error,omitempty"`
}

func (s *AvailabilityService) SyncStatus(ctx context.Context, userID string) (SyncStatus, error) {
	sync, shared, err := s.Tokens.resolveSync(ctx, userID)
	if errors.Is(err, ErrNoCalendar) {
		return SyncStatus{Connected: false}, nil
	}
	if err != nil {
		return SyncStatus{}, err
	}
	return SyncStatus{
		Connected:  true,
		Shared:     shared,
		Provider:   sync.Provider,
		Email:      sync.Email,
		LastSyncAt: sync.LastSyncAt,
		LastError:  sync.LastError,
	}, nil
}
