package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roundrobin/backend/internal/calendar"
	"github.com/roundrobin/backend/internal/models"
)

type BookingStore interface {
	GetRecord(ctx context.Context, id string) (models.Record, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	InsertBooking(ctx context.Context, b models.Booking) error
	UpdateBooking(ctx context.Context, b models.Booking) error
	ListBookingsEndedBefore(ctx context.Context, status string, cutoff time.Time) ([]models.Booking, error)
	InsertBookingEvent(ctx context.Context, ev models.BookingEvent) error
}

// BookingService creates provider-side events and owns the Booking
// status lifecycle.
type BookingService struct {
	Store  BookingStore
	Tokens *TokenManager
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateBooking re-validates the slot against the live calendar, writes
// the provider event, then persists the Booking. A stale slot returns
// ErrSlotConflict; a persistence failure rolls the provider event back.
func (s *BookingService) CreateBooking(ctx context.Context, recordID, userID string, scheduledAt time.Time, duration time.Duration, notes string) (models.Booking, error) {
	booking, err := s.createBooking(ctx, recordID, userID, scheduledAt, duration, notes, nil)
	if err != nil {
		return models.Booking{}, err
	}
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, recordID, userID string, scheduledAt time.Time, duration time.Duration, notes string, originalBookingID *string) (models.Booking, error) {
	record, err := s.Store.GetRecord(ctx, recordID)
	if err != nil {
		return models.Booking{}, err
	}
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return models.Booking{}, err
	}

	sess, err := s.Tokens.Session(ctx, userID)
	if err != nil {
		return models.Booking{}, err
	}

	slotEnd := scheduledAt.Add(duration)
	events, err := sess.Provider.GetEvents(ctx, sess.Credentials, scheduledAt, slotEnd)
	if err != nil {
		s.Tokens.RecordError(ctx, sess.SyncID, err)
		return models.Booking{}, err
	}
	for _, ev := range events {
		if calendar.Overlaps(scheduledAt, slotEnd, ev.Start, ev.End) {
			return models.Booking{}, ErrSlotConflict
		}
	}

	description := notes
	if description == "" {
		description = fmt.Sprintf("Meeting with %s booked for %s", record.Name, user.Name)
	}
	draft := calendar.EventDraft{
		Summary:           fmt.Sprintf("Meeting with %s", record.Name),
		Description:       description,
		Start:             scheduledAt,
		End:               slotEnd,
		Location:          "Video Call",
		RequestConference: true,
	}
	if record.Email != "" {
		draft.Attendees = []string{record.Email}
	}

	providerEvent, err := sess.Provider.CreateEvent(ctx, sess.Credentials, draft)
	if err != nil {
		s.Tokens.RecordError(ctx, sess.SyncID, err)
		return models.Booking{}, err
	}

	now := s.now().UTC()
	booking := models.Booking{
		ID:                uuid.NewString(),
		RecordID:          recordID,
		UserID:            userID,
		ScheduledAt:       scheduledAt,
		DurationMinutes:   int(duration / time.Minute),
		Status:            models.BookingScheduled,
		Notes:             notes,
		OriginalBookingID: originalBookingID,
		ProviderEventID:   providerEvent.ID,
		ConferenceLink:    providerEvent.ConferenceLink,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Store.InsertBooking(ctx, booking); err != nil {
		// Roll the provider event back rather than leave a meeting
		// nobody tracks. A failed rollback surfaces the orphan id.
		if delErr := sess.Provider.DeleteEvent(ctx, sess.Credentials, providerEvent.ID); delErr != nil {
			return models.Booking{}, fmt.Errorf("booking not persisted and provider event %s not rolled back: %v (rollback: %v)", providerEvent.ID, err, delErr)
		}
		return models.Booking{}, fmt.Errorf("booking not persisted, provider event rolled back: %w", err)
	}

	s.appendEvent(ctx, booking.ID, "booked", fmt.Sprintf("Meeting scheduled at %s", scheduledAt.Format(time.RFC3339)), "", models.BookingScheduled)
	s.Tokens.MarkSynced(ctx, sess.SyncID)

	s.Logger.Info().
		Str("booking_id", booking.ID).
		Str("record_id", recordID).
		Str("user_id", userID).
		Time("scheduled_at", scheduledAt).
		Msg("booking created")
	return booking, nil
}

// ChangeStatus moves a scheduled booking to completed, cancelled, or
// no_show. completed/cancelled/no_show are terminal; rescheduling goes
// through Reschedule so the replacement booking exists first.
func (s *BookingService) ChangeStatus(ctx context.Context, bookingID, status, reason string) (models.Booking, error) {
	booking, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}

	switch status {
	case models.BookingCompleted, models.BookingNoShow:
	case models.BookingCancelled:
		if reason == "" {
			return models.Booking{}, ErrReasonRequired
		}
	default:
		return models.Booking{}, fmt.Errorf("%w: cannot set status %q directly", ErrInvalidTransition, status)
	}
	if booking.Status != models.BookingScheduled {
		return models.Booking{}, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
	}

	previous := booking.Status
	booking.Status = status
	if status == models.BookingCancelled {
		booking.CancellationReason = &reason
	}
	booking.UpdatedAt = s.now().UTC()
	if err := s.Store.UpdateBooking(ctx, booking); err != nil {
		return models.Booking{}, err
	}

	s.appendEvent(ctx, booking.ID, "status_changed", fmt.Sprintf("Status changed from %s to %s", previous, status), previous, status)
	return booking, nil
}

// SetOutcome attaches a freeform outcome label; allowed only once the
// booking is completed.
func (s *BookingService) SetOutcome(ctx context.Context, bookingID, outcome string) (models.Booking, error) {
	booking, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.Status != models.BookingCompleted {
		return models.Booking{}, ErrOutcomeNotAllowed
	}
	booking.Outcome = &outcome
	booking.UpdatedAt = s.now().UTC()
	if err := s.Store.UpdateBooking(ctx, booking); err != nil {
		return models.Booking{}, err
	}
	s.appendEvent(ctx, booking.ID, "outcome_set", fmt.Sprintf("Outcome set to %q", outcome), "", outcome)
	return booking, nil
}

// Reschedule books a replacement slot and then moves the parent to
// rescheduled. The parent is left untouched if the new booking fails.
func (s *BookingService) Reschedule(ctx context.Context, bookingID string, scheduledAt time.Time, duration time.Duration) (models.Booking, error) {
	parent, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if parent.Status != models.BookingScheduled {
		return models.Booking{}, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, parent.Status)
	}
	if duration <= 0 {
		duration = time.Duration(parent.DurationMinutes) * time.Minute
	}

	replacement, err := s.createBooking(ctx, parent.RecordID, parent.UserID, scheduledAt, duration, parent.Notes, &parent.ID)
	if err != nil {
		return models.Booking{}, err
	}

	previous := parent.Status
	parent.Status = models.BookingRescheduled
	parent.UpdatedAt = s.now().UTC()
	if err := s.Store.UpdateBooking(ctx, parent); err != nil {
		return models.Booking{}, err
	}
	s.appendEvent(ctx, parent.ID, "status_changed", fmt.Sprintf("Rescheduled to booking %s", replacement.ID), previous, models.BookingRescheduled)

	return replacement, nil
}

// DetectNoShows marks scheduled bookings whose end passed the grace
// period as no_show. Returns the number of bookings flagged.
func (s *BookingService) DetectNoShows(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := s.now().Add(-grace)
	stale, err := s.Store.ListBookingsEndedBefore(ctx, models.BookingScheduled, cutoff)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, booking := range stale {
		previous := booking.Status
		booking.Status = models.BookingNoShow
		booking.UpdatedAt = s.now().UTC()
		if err := s.Store.UpdateBooking(ctx, booking); err != nil {
			s.Logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to flag no-show")
			continue
		}
		s.appendEvent(ctx, booking.ID, "status_changed", "Flagged as no-show", previous, models.BookingNoShow)
		flagged++
	}
	return flagged, nil
}

// appendEvent records a timeline row. Best-effort: the booking change
// already committed.
func (s *BookingService) appendEvent(ctx context.Context, bookingID, eventType, description, previous, next string) {
	ev := models.BookingEvent{
		ID:            uuid.NewString(),
		BookingID:     bookingID,
		EventType:     eventType,
		Description:   description,
		PreviousValue: previous,
		NewValue:      next,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Store.InsertBookingEvent(ctx, ev); err != nil {
		s.Logger.Warn().Err(err).Str("booking_id", bookingID).Msg("failed to append booking event")
	}
}
