package calendar

import (
	"testing"
	"time"
)

// Tuesday 2026-01-06.
func tuesday(hour, min int) time.Time {
	return time.Date(2026, 1, 6, hour, min, 0, 0, time.UTC)
}

func TestAvailableSlots_SkipsBusyHour(t *testing.T) {
	events := []Event{{Start: tuesday(10, 0), End: tuesday(10, 30)}}

	slots := AvailableSlots(events, tuesday(0, 0), tuesday(23, 59), 30*time.Minute, DefaultBusinessHours(), time.Hour)

	if len(slots) != 7 {
		t.Fatalf("expected 7 slots (8 hourly candidates minus the busy one), got %d", len(slots))
	}
	for _, s := range slots {
		if s.Start.Hour() == 10 {
			t.Fatalf("expected 10:00 slot to be excluded, got %v", s.Start)
		}
		if !s.Available {
			t.Fatalf("expected only available slots in output")
		}
		if s.End.Sub(s.Start) != 30*time.Minute {
			t.Fatalf("expected 30m slots, got %v", s.End.Sub(s.Start))
		}
	}
	if slots[0].Start.Hour() != 9 {
		t.Fatalf("expected first slot at 09:00, got %v", slots[0].Start)
	}
}

func TestAvailableSlots_SkipsWeekends(t *testing.T) {
	// Saturday 2026-01-03 through Sunday.
	start := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	slots := AvailableSlots(nil, start, end, 30*time.Minute, DefaultBusinessHours(), time.Hour)
	if len(slots) != 0 {
		t.Fatalf("expected no weekend slots, got %d", len(slots))
	}
}

func TestAvailableSlots_RespectsBusinessHours(t *testing.T) {
	slots := AvailableSlots(nil, tuesday(0, 0), tuesday(23, 59), 30*time.Minute, BusinessHours{Start: 9, End: 12}, time.Hour)
	if len(slots) != 3 {
		t.Fatalf("expected slots at 9, 10, 11 only, got %d", len(slots))
	}
	last := slots[len(slots)-1]
	if last.Start.Hour() != 11 {
		t.Fatalf("expected last slot at 11:00, got %v", last.Start)
	}
}

func TestAvailableSlots_DropsCandidatesBeforeWindowStart(t *testing.T) {
	slots := AvailableSlots(nil, tuesday(10, 30), tuesday(23, 59), 30*time.Minute, DefaultBusinessHours(), time.Hour)
	for _, s := range slots {
		if s.Start.Before(tuesday(10, 30)) {
			t.Fatalf("expected no slot before the requested start, got %v", s.Start)
		}
	}
	if slots[0].Start.Hour() != 11 {
		t.Fatalf("expected first slot at 11:00, got %v", slots[0].Start)
	}
}

func TestAvailableSlots_DurationLongerThanGranularity(t *testing.T) {
	slots := AvailableSlots(nil, tuesday(0, 0), tuesday(23, 59), 2*time.Hour, DefaultBusinessHours(), time.Hour)
	// 2h meetings can start 9 through 15.
	if len(slots) != 7 {
		t.Fatalf("expected 7 two-hour slots, got %d", len(slots))
	}
	last := slots[len(slots)-1]
	if last.End.Hour() != 17 {
		t.Fatalf("expected last slot to end at close of business, got %v", last.End)
	}
}

func TestOverlaps_TouchingBoundariesDoNotConflict(t *testing.T) {
	if Overlaps(tuesday(9, 0), tuesday(10, 0), tuesday(10, 0), tuesday(11, 0)) {
		t.Fatalf("expected back-to-back intervals not to overlap")
	}
	if !Overlaps(tuesday(9, 0), tuesday(10, 1), tuesday(10, 0), tuesday(11, 0)) {
		t.Fatalf("expected one-minute overlap to conflict")
	}
	if !Overlaps(tuesday(10, 15), tuesday(10, 45), tuesday(10, 0), tuesday(11, 0)) {
		t.Fatalf("expected contained interval to conflict")
	}
}
