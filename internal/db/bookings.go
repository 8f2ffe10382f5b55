package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roundrobin/backend/internal/models"
)

const bookingColumns = `id, record_id, user_id, scheduled_at, duration_minutes, status, notes, cancellation_reason, outcome, original_booking_id, provider_event_id, conference_link, created_at, updated_at`

func (s *Store) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	var b models.Booking
	if err := row.Scan(&b.ID, &b.RecordID, &b.UserID, &b.ScheduledAt, &b.DurationMinutes, &b.Status, &b.Notes, &b.CancellationReason, &b.Outcome, &b.OriginalBookingID, &b.ProviderEventID, &b.ConferenceLink, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

func (s *Store) InsertBooking(ctx context.Context, b models.Booking) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO bookings (id, record_id, user_id, scheduled_at, duration_minutes, status, notes, cancellation_reason, outcome, original_booking_id, provider_event_id, conference_link, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, b.ID, b.RecordID, b.UserID, b.ScheduledAt, b.DurationMinutes, b.Status, b.Notes, b.CancellationReason, b.Outcome, b.OriginalBookingID, b.ProviderEventID, b.ConferenceLink, b.CreatedAt, b.UpdatedAt)
	return err
}

func (s *Store) UpdateBooking(ctx context.Context, b models.Booking) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE bookings
		SET status = $1, notes = $2, cancellation_reason = $3, outcome = $4, updated_at = $5
		WHERE id = $6
	`, b.Status, b.Notes, b.CancellationReason, b.Outcome, b.UpdatedAt, b.ID)
	return err
}

func (s *Store) ListBookings(ctx context.Context, status, userID, recordID string, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if userID != "" {
		args = append(args, userID)
		wheres = append(wheres, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if recordID != "" {
		args = append(args, recordID)
		wheres = append(wheres, fmt.Sprintf("record_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY scheduled_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.RecordID, &b.UserID, &b.ScheduledAt, &b.DurationMinutes, &b.Status, &b.Notes, &b.CancellationReason, &b.Outcome, &b.OriginalBookingID, &b.ProviderEventID, &b.ConferenceLink, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBookingsEndedBefore returns bookings in the given status whose
// scheduled end already passed the cutoff.
func (s *Store) ListBookingsEndedBefore(ctx context.Context, status string, cutoff time.Time) ([]models.Booking, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1
		  AND scheduled_at + duration_minutes * INTERVAL '1 minute' < $2
		ORDER BY scheduled_at ASC
	`, status, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.RecordID, &b.UserID, &b.ScheduledAt, &b.DurationMinutes, &b.Status, &b.Notes, &b.CancellationReason, &b.Outcome, &b.OriginalBookingID, &b.ProviderEventID, &b.ConferenceLink, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) InsertBookingEvent(ctx context.Context, ev models.BookingEvent) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO booking_events (id, booking_id, event_type, description, previous_value, new_value, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, ev.ID, ev.BookingID, ev.EventType, ev.Description, ev.PreviousValue, ev.NewValue, ev.CreatedAt)
	return err
}

func (s *Store) ListBookingEvents(ctx context.Context, bookingID string) ([]models.BookingEvent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, booking_id, event_type, description, previous_value, new_value, created_at
		FROM booking_events WHERE booking_id = $1 ORDER BY created_at ASC
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BookingEvent
	for rows.Next() {
		var ev models.BookingEvent
		if err := rows.Scan(&ev.ID, &ev.BookingID, &ev.EventType, &ev.Description, &ev.PreviousValue, &ev.NewValue, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
