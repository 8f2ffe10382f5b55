package calendar

import "time"

// TimeSlot is a transient candidate meeting interval; it is computed
// on demand and never persisted.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// BusinessHours is a same-day window in whole hours of local time.
type BusinessHours struct {
	Start int
	End   int
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{Start: 9, End: 17}
}

// Overlaps reports whether two intervals conflict. Touching boundaries
// do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// AvailableSlots generates candidate slots of the given duration at the
// given granularity across each weekday in [start, end), inside business
// hours, and keeps the ones that conflict with no existing event.
// Weekend days are skipped entirely; candidates starting before start
// are dropped. Results are in chronological order.
func AvailableSlots(events []Event, start, end time.Time, duration time.Duration, hours BusinessHours, granularity time.Duration) []TimeSlot {
	if granularity <= 0 {
		granularity = time.Hour
	}
	if hours.End <= hours.Start {
		hours = DefaultBusinessHours()
	}

	slots := []TimeSlot{}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for day.Before(end) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}

		windowStart := day.Add(time.Duration(hours.Start) * time.Hour)
		windowEnd := day.Add(time.Duration(hours.End) * time.Hour)
		for slotStart := windowStart; !slotStart.Add(duration).After(windowEnd); slotStart = slotStart.Add(granularity) {
			slotEnd := slotStart.Add(duration)
			if slotStart.Before(start) || slotEnd.After(end) {
				continue
			}
			if conflicts(slotStart, slotEnd, events) {
				continue
			}
			slots = append(slots, TimeSlot{Start: slotStart, End: slotEnd, Available: true})
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots
}

func conflicts(slotStart, slotEnd time.Time, events []Event) bool {
	for _, ev := range events {
		if Overlaps(slotStart, slotEnd, ev.Start, ev.End) {
			return true
		}
	}
	return false
}
