package schedule

import (
	"testing"
	"time"

	"coachbooking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-06-02 is a Monday.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mondayRule(startMin, endMin int) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:          "r1",
		ExpertID:    "e1",
		DayOfWeek:   time.Monday,
		StartMinute: startMin,
		EndMinute:   endMin,
	}
}

func TestResolve_SingleRule(t *testing.T) {
	// the clock is well before the requested date, so no past filtering
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	// Monday 09:00-10:00, 30 minute sessions
	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].End)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[1].Start)
	assert.Equal(t, monday.Add(10*time.Hour), slots[1].End)
}

func TestResolve_BookingOverlapExcluded(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	booking := models.Booking{
		ExpertID: "e1",
		Start:    monday.Add(9*time.Hour + 30*time.Minute),
		End:      monday.Add(10 * time.Hour),
		Status:   models.BookingConfirmed,
	}

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, []models.Booking{booking})

	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
}

func TestResolve_CancelledBookingDoesNotBlock(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	booking := models.Booking{
		ExpertID: "e1",
		Start:    monday.Add(9*time.Hour + 30*time.Minute),
		End:      monday.Add(10 * time.Hour),
		Status:   models.BookingCancelled,
	}

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, []models.Booking{booking})

	assert.Len(t, slots, 2)
}

func TestResolve_BlockedDateOverridesRules(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	blocked := models.BlockedDate{ExpertID: "e1", Date: monday}

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, []models.BlockedDate{blocked}, nil)

	assert.Empty(t, slots)
}

func TestResolve_BlockedOtherDateIgnored(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	blocked := models.BlockedDate{ExpertID: "e1", Date: monday.AddDate(0, 0, 1)}

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, []models.BlockedDate{blocked}, nil)

	assert.Len(t, slots, 2)
}

func TestResolve_NoRulesForWeekday(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	tuesdayRule := mondayRule(540, 600)
	tuesdayRule.DayOfWeek = time.Tuesday

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{tuesdayRule}, nil, nil)

	assert.Empty(t, slots)
}

func TestResolve_PastSlotsFilteredToday(t *testing.T) {
	// it is 09:10 on the requested date: the 09:00 slot is gone,
	// 09:30 is still bookable
	r := NewResolver(fixedClock(monday.Add(9*time.Hour + 10*time.Minute)))

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].Start)
}

func TestResolve_PastFilterWithNonUTCClock(t *testing.T) {
	// 11:10 +02:00 is 09:10 UTC on the requested UTC date: the 09:00 slot
	// is in the past even though the clock's local midnight differs
	cest := time.FixedZone("CEST", 2*60*60)
	r := NewResolver(fixedClock(time.Date(2025, 6, 2, 11, 10, 0, 0, cest)))

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].Start)
}

func TestResolve_SlotStartingNowIsBookable(t *testing.T) {
	// 09:30 sharp: 09:00 is gone, the slot starting right now is not
	r := NewResolver(fixedClock(monday.Add(9*time.Hour + 30*time.Minute)))

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].Start)
}

func TestResolve_PastFilterOnlyAppliesToday(t *testing.T) {
	// the clock is past 09:00 wall time, but on the previous day
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -1).Add(12 * time.Hour)))

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(540, 600)}, nil, nil)

	assert.Len(t, slots, 2)
}

func TestResolve_MultipleRulesMerged(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	rules := []models.AvailabilityRule{
		mondayRule(14*60, 15*60),
		mondayRule(540, 600),
		// overlapping rule producing a duplicate 09:00 start
		mondayRule(540, 570),
	}

	slots := r.Resolve(monday, 30, rules, nil, nil)

	require.Len(t, slots, 4)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start), "slots must be strictly ascending")
	}
}

func TestResolve_NoSlotOverlapsAnyBooking(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	bookings := []models.Booking{
		{Start: monday.Add(10 * time.Hour), End: monday.Add(11 * time.Hour), Status: models.BookingPending},
		{Start: monday.Add(13 * time.Hour), End: monday.Add(13*time.Hour + 30*time.Minute), Status: models.BookingConfirmed},
	}

	slots := r.Resolve(monday, 30, []models.AvailabilityRule{mondayRule(9*60, 15*60)}, nil, bookings)

	for _, slot := range slots {
		for _, b := range bookings {
			overlaps := slot.Start.Before(b.End) && b.Start.Before(slot.End)
			assert.False(t, overlaps, "slot %v overlaps booking %v", slot, b)
		}
	}
	// 09:00-15:00 gives 12 half-hour slots, 3 removed by the bookings
	assert.Len(t, slots, 9)
}

func TestResolve_Idempotent(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	rules := []models.AvailabilityRule{mondayRule(540, 600), mondayRule(14*60, 16*60)}

	first := r.Resolve(monday, 30, rules, nil, nil)
	second := r.Resolve(monday, 30, rules, nil, nil)

	assert.Equal(t, first, second)
}

func TestResolve_NonPositiveDuration(t *testing.T) {
	r := NewResolver(fixedClock(monday.AddDate(0, 0, -7)))

	assert.Empty(t, r.Resolve(monday, 0, []models.AvailabilityRule{mondayRule(540, 600)}, nil, nil))
}
