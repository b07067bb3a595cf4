package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// AvailabilityRule is a recurring weekly window during which an expert
// accepts bookings. Times are minutes since midnight, minute precision,
// start < end on the same calendar day.
type AvailabilityRule struct {
	ID          string       `db:"id"`
	ExpertID    string       `db:"expert_id"`
	DayOfWeek   time.Weekday `db:"day_of_week"`
	StartMinute int          `db:"start_min"`
	EndMinute   int          `db:"end_min"`
}

// BlockedDate marks a whole calendar day as unavailable, overriding
// every rule for that expert on that date.
type BlockedDate struct {
	ID       string    `db:"id"`
	ExpertID string    `db:"expert_id"`
	Date     time.Time `db:"date"`
}

type SessionType struct {
	ID              string `db:"id"`
	ExpertID        string `db:"expert_id"`
	Name            string `db:"name"`
	DurationMinutes int    `db:"duration_minutes"`
	PriceCents      int    `db:"price_cents"`
}

type Booking struct {
	ID            string        `db:"id"`
	ExpertID      string        `db:"expert_id"`
	SessionTypeID string        `db:"session_type_id"`
	Start         time.Time     `db:"start_at"`
	End           time.Time     `db:"end_at"`
	Status        BookingStatus `db:"status"`
	Note          string        `db:"note"`
	CreatedAt     time.Time     `db:"created_at"`
}

// Slot is a derived, bookable start time. Slots are regenerated on every
// resolution pass and never persisted.
type Slot struct {
	Start time.Time
	End   time.Time
}
