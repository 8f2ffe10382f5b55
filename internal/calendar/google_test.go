package calendar

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

func TestClassifyGoogleError(t *testing.T) {
	unauthorized := classifyGoogleError(&googleapi.Error{Code: 401})
	var perm *backoff.PermanentError
	if !errors.As(unauthorized, &perm) {
		t.Fatalf("expected 401 to be permanent, got %v", unauthorized)
	}
	if !errors.Is(unauthorized, ErrAuth) {
		t.Fatalf("expected 401 to map to ErrAuth, got %v", unauthorized)
	}

	throttled := classifyGoogleError(&googleapi.Error{Code: 429})
	if errors.As(throttled, &perm) {
		t.Fatalf("expected 429 to be retryable, got %v", throttled)
	}
	if !errors.Is(throttled, ErrUnavailable) {
		t.Fatalf("expected 429 to map to ErrUnavailable, got %v", throttled)
	}

	backend := classifyGoogleError(&googleapi.Error{Code: 503})
	if !errors.Is(backend, ErrUnavailable) {
		t.Fatalf("expected 503 to map to ErrUnavailable, got %v", backend)
	}

	notFound := classifyGoogleError(&googleapi.Error{Code: 404})
	if !errors.As(notFound, &perm) {
		t.Fatalf("expected 404 to be permanent, got %v", notFound)
	}
	if errors.Is(notFound, ErrAuth) || errors.Is(notFound, ErrUnavailable) {
		t.Fatalf("expected 404 to keep its own identity, got %v", notFound)
	}

	network := classifyGoogleError(fmt.Errorf("dial tcp: connection refused"))
	if !errors.Is(network, ErrUnavailable) {
		t.Fatalf("expected network error to be transient, got %v", network)
	}
}

func TestParseGoogleTime(t *testing.T) {
	timed, err := parseGoogleTime(&gcal.EventDateTime{DateTime: "2026-01-06T10:00:00Z"})
	if err != nil {
		t.Fatalf("parse datetime: %v", err)
	}
	if !timed.Equal(time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected datetime: %v", timed)
	}

	allDay, err := parseGoogleTime(&gcal.EventDateTime{Date: "2026-01-06"})
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if allDay.Year() != 2026 || allDay.Month() != time.January || allDay.Day() != 6 {
		t.Fatalf("unexpected date: %v", allDay)
	}

	if _, err := parseGoogleTime(nil); err == nil {
		t.Fatalf("expected error for missing time")
	}
}

func TestFromGoogleEvent(t *testing.T) {
	ev, err := fromGoogleEvent(&gcal.Event{
		Id:          "ev1",
		Summary:     "Demo",
		HangoutLink: "https://meet.google.com/abc",
		Start:       &gcal.EventDateTime{DateTime: "2026-01-06T10:00:00Z"},
		End:         &gcal.EventDateTime{DateTime: "2026-01-06T10:30:00Z"},
		Attendees: []*gcal.EventAttendee{
			{Email: "a@example.com"},
			{Email: ""},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "ev1" || ev.ConferenceLink != "https://meet.google.com/abc" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Attendees) != 1 {
		t.Fatalf("expected blank attendee dropped, got %v", ev.Attendees)
	}
}
