package schedule

import (
	"time"

	"coachbooking/internal/models"
)

// Resolver turns an expert's weekly rules, blocked dates and existing
// bookings into the bookable slot set for one calendar date. It holds no
// state beyond the clock; every call works only on its explicit inputs.
type Resolver struct {
	now func() time.Time
}

func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}

	return &Resolver{now: now}
}

// Resolve returns the bookable slots for the date, ascending by start time.
// Blocked dates short-circuit before rule expansion: a blocked date yields
// an empty set regardless of rules. Slots overlapping a non-cancelled
// booking are removed, as are slots already in the past when the date is
// today. An empty result is a normal outcome, not an error.
func (r *Resolver) Resolve(
	date time.Time,
	durationMinutes int,
	rules []models.AvailabilityRule,
	blocked []models.BlockedDate,
	bookings []models.Booking,
) []models.Slot {
	if durationMinutes <= 0 {
		return []models.Slot{}
	}

	day := truncateToDate(date)

	for _, b := range blocked {
		if truncateToDate(b.Date).Equal(day) {
			return []models.Slot{}
		}
	}

	windows := make([]Window, 0, len(rules))
	for _, rule := range rules {
		if rule.DayOfWeek != day.Weekday() {
			continue
		}
		windows = append(windows, Window{Start: rule.StartMinute, End: rule.EndMinute})
	}

	starts := ExpandWindows(windows, durationMinutes)

	duration := time.Duration(durationMinutes) * time.Minute

	// the date is canonical UTC; normalize the clock so the "is today"
	// comparison below is zone-independent
	now := r.now().UTC()

	slots := make([]models.Slot, 0, len(starts))
	for _, m := range starts {
		slot := models.Slot{
			Start: day.Add(time.Duration(m) * time.Minute),
		}
		slot.End = slot.Start.Add(duration)

		if overlapsAny(slot, bookings) {
			continue
		}

		if slot.Start.Before(now) && truncateToDate(now).Equal(day) {
			continue
		}

		slots = append(slots, slot)
	}

	return slots
}

// overlapsAny reports whether the slot overlaps any non-cancelled booking:
// slot.Start < booking.End && booking.Start < slot.End.
func overlapsAny(slot models.Slot, bookings []models.Booking) bool {
	for _, b := range bookings {
		if b.Status == models.BookingCancelled {
			continue
		}
		if slot.Start.Before(b.End) && b.Start.Before(slot.End) {
			return true
		}
	}

	return false
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
