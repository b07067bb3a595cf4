package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coachbooking/api"
	"coachbooking/internal/idempotency"
	"coachbooking/internal/models"
	"coachbooking/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-06-02 is a Monday.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fakeStore struct {
	rules        map[string]*models.AvailabilityRule
	blocked      map[string]*models.BlockedDate
	sessionTypes map[string]*models.SessionType
	bookings     map[string]*models.Booking
	nextID       int

	createBookingCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rules:        make(map[string]*models.AvailabilityRule),
		blocked:      make(map[string]*models.BlockedDate),
		sessionTypes: make(map[string]*models.SessionType),
		bookings:     make(map[string]*models.Booking),
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) CreateAvailabilityRule(_ context.Context, rule *models.AvailabilityRule) (string, error) {
	rule.ID = f.id()
	f.rules[rule.ID] = rule
	return rule.ID, nil
}

func (f *fakeStore) GetAvailabilityRule(_ context.Context, id string) (*models.AvailabilityRule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return rule, nil
}

func (f *fakeStore) ListAvailabilityRules(_ context.Context, expertID string) ([]*models.AvailabilityRule, error) {
	var rules []*models.AvailabilityRule
	for _, rule := range f.rules {
		if rule.ExpertID == expertID {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (f *fakeStore) UpdateAvailabilityRule(_ context.Context, rule *models.AvailabilityRule) error {
	if _, ok := f.rules[rule.ID]; !ok {
		return response.ErrNotFound
	}
	f.rules[rule.ID] = rule
	return nil
}

func (f *fakeStore) DeleteAvailabilityRule(_ context.Context, id string) error {
	if _, ok := f.rules[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

func (f *fakeStore) CreateBlockedDate(_ context.Context, blocked *models.BlockedDate) (string, error) {
	blocked.ID = f.id()
	f.blocked[blocked.ID] = blocked
	return blocked.ID, nil
}

func (f *fakeStore) ListBlockedDates(_ context.Context, expertID string) ([]*models.BlockedDate, error) {
	var blocked []*models.BlockedDate
	for _, b := range f.blocked {
		if b.ExpertID == expertID {
			blocked = append(blocked, b)
		}
	}
	return blocked, nil
}

func (f *fakeStore) DeleteBlockedDate(_ context.Context, id string) error {
	if _, ok := f.blocked[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.blocked, id)
	return nil
}

func (f *fakeStore) CreateSessionType(_ context.Context, st *models.SessionType) (string, error) {
	st.ID = f.id()
	f.sessionTypes[st.ID] = st
	return st.ID, nil
}

func (f *fakeStore) GetSessionType(_ context.Context, id string) (*models.SessionType, error) {
	st, ok := f.sessionTypes[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) ListSessionTypes(_ context.Context, expertID string) ([]*models.SessionType, error) {
	var types []*models.SessionType
	for _, st := range f.sessionTypes {
		if st.ExpertID == expertID {
			types = append(types, st)
		}
	}
	return types, nil
}

// CreateBooking mirrors the exclusion constraint: an overlap with a
// non-cancelled booking for the same expert is a conflict.
func (f *fakeStore) CreateBooking(_ context.Context, booking *models.Booking) (string, error) {
	f.createBookingCalls++
	for _, b := range f.bookings {
		if b.ExpertID != booking.ExpertID || b.Status == models.BookingCancelled {
			continue
		}
		if booking.Start.Before(b.End) && b.Start.Before(booking.End) {
			return "", response.ErrBookingConflict
		}
	}
	booking.ID = f.id()
	booking.CreatedAt = time.Now().UTC()
	f.bookings[booking.ID] = booking
	return booking.ID, nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return booking, nil
}

func (f *fakeStore) ListBookings(_ context.Context, expertID string, from, to time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for _, b := range f.bookings {
		if b.ExpertID != expertID || b.Status == models.BookingCancelled {
			continue
		}
		if b.Start.Before(to) && from.Before(b.End) {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func (f *fakeStore) UpdateBookingStatus(_ context.Context, bookingID string, status models.BookingStatus) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return response.ErrNotFound
	}
	booking.Status = status
	return nil
}

type fakeLocker struct {
	locked   bool
	acquired []string
	released []string
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.locked {
		return false, nil
	}
	f.acquired = append(f.acquired, key)
	return true, nil
}

func (f *fakeLocker) Unlock(_ context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

type fakeIdemStore struct {
	keys map[string]string
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{keys: make(map[string]string)}
}

func (f *fakeIdemStore) Get(_ context.Context, key string) (string, error) {
	id, ok := f.keys[key]
	if !ok {
		return "", idempotency.ErrNotFound
	}
	return id, nil
}

func (f *fakeIdemStore) Set(_ context.Context, key, bookingID string, _ time.Duration) error {
	f.keys[key] = bookingID
	return nil
}

func newTestService(store *fakeStore, locker *fakeLocker, idem *fakeIdemStore) *Service {
	return NewService(store, locker, idem, 10*time.Second, WithClock(func() time.Time {
		return monday.AddDate(0, 0, -7)
	}))
}

func seedExpert(t *testing.T, store *fakeStore) (sessionTypeID string) {
	t.Helper()

	_, err := store.CreateAvailabilityRule(context.Background(), &models.AvailabilityRule{
		ExpertID:    "e1",
		DayOfWeek:   time.Monday,
		StartMinute: 9 * 60,
		EndMinute:   10 * 60,
	})
	require.NoError(t, err)

	id, err := store.CreateSessionType(context.Background(), &models.SessionType{
		ExpertID:        "e1",
		Name:            "Coaching session",
		DurationMinutes: 30,
		PriceCents:      5000,
	})
	require.NoError(t, err)

	return id
}

func TestResolveAvailableSlots(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	slots, err := svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", stID)

	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[1].Start)
}

func TestResolveAvailableSlots_InvalidDate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	_, err := svc.ResolveAvailableSlots(context.Background(), "e1", "02.06.2025", stID)
	assert.ErrorIs(t, err, response.ErrInvalidInput)
}

func TestResolveAvailableSlots_UnknownSessionType(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	seedExpert(t, store)

	_, err := svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", "missing")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestResolveAvailableSlots_ForeignSessionType(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	seedExpert(t, store)

	otherID, err := store.CreateSessionType(context.Background(), &models.SessionType{
		ExpertID:        "e2",
		Name:            "Other expert session",
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	_, err = svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", otherID)
	assert.ErrorIs(t, err, response.ErrInvalidInput)
}

func TestResolveAvailableSlots_EmptyIsNotAnError(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	// Tuesday has no rules
	slots, err := svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-03", stID)

	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestCreateBooking(t *testing.T) {
	store := newFakeStore()
	locker := &fakeLocker{}
	svc := newTestService(store, locker, newFakeIdemStore())
	stID := seedExpert(t, store)

	booking, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     monday.Add(9 * time.Hour).Format(time.RFC3339),
		Note:          "first session",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, string(models.BookingPending), booking.Status)
	assert.Equal(t, monday.Add(9*time.Hour), booking.Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), booking.End)
	assert.Equal(t, "first session", booking.Note)

	// the per-slot lock is taken and released
	require.Len(t, locker.acquired, 1)
	assert.Equal(t, locker.acquired, locker.released)
}

func TestCreateBooking_Conflict(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	req := &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     monday.Add(9 * time.Hour).Format(time.RFC3339),
	}

	_, err := svc.CreateBooking(context.Background(), req, nil)
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), req, nil)
	assert.ErrorIs(t, err, response.ErrBookingConflict)
}

func TestCreateBooking_Locked(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{locked: true}, newFakeIdemStore())
	stID := seedExpert(t, store)

	_, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     monday.Add(9 * time.Hour).Format(time.RFC3339),
	}, nil)

	assert.ErrorIs(t, err, response.ErrLocked)
}

func TestCreateBooking_IdempotentReplay(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	key := "client-key-1"
	req := &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     monday.Add(9 * time.Hour).Format(time.RFC3339),
	}

	first, err := svc.CreateBooking(context.Background(), req, &key)
	require.NoError(t, err)

	replay, err := svc.CreateBooking(context.Background(), req, &key)
	require.NoError(t, err)

	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, 1, store.createBookingCalls)
}

func TestCreateBooking_InvalidStart(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	_, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     "tomorrow at nine",
	}, nil)

	assert.ErrorIs(t, err, response.ErrInvalidInput)
}

func TestBookingExcludesSlot_CancelFreesIt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	booking, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     monday.Add(9*time.Hour + 30*time.Minute).Format(time.RFC3339),
	}, nil)
	require.NoError(t, err)

	slots, err := svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", stID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)

	_, err = svc.CancelBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	slots, err = svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", stID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestConfirmBooking(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	booking, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ExpertID:      "e1",
		SessionTypeID: stID,
		StartTime:     monday.Add(9 * time.Hour).Format(time.RFC3339),
	}, nil)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingConfirmed), confirmed.Status)
}

func TestCreateSessionType_NonPositiveDuration(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())

	_, err := svc.CreateSessionType(context.Background(), &api.SessionTypeRequest{
		ExpertID:        "e1",
		Name:            "Broken",
		DurationMinutes: 0,
	})

	assert.ErrorIs(t, err, response.ErrInvalidInput)
}

func TestCreateAvailabilityRule_Validation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())

	tests := []struct {
		name string
		req  api.AvailabilityRuleRequest
	}{
		{"day out of range", api.AvailabilityRuleRequest{ExpertID: "e1", DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"}},
		{"start after end", api.AvailabilityRuleRequest{ExpertID: "e1", DayOfWeek: 1, StartTime: "11:00", EndTime: "10:00"}},
		{"start equals end", api.AvailabilityRuleRequest{ExpertID: "e1", DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"}},
		{"malformed time", api.AvailabilityRuleRequest{ExpertID: "e1", DayOfWeek: 1, StartTime: "nine", EndTime: "10:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAvailabilityRule(context.Background(), &tt.req)
			assert.ErrorIs(t, err, response.ErrInvalidInput)
		})
	}
}

func TestBlockedDate_EmptiesResolution(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLocker{}, newFakeIdemStore())
	stID := seedExpert(t, store)

	blocked, err := svc.CreateBlockedDate(context.Background(), &api.BlockedDateRequest{
		ExpertID: "e1",
		Date:     "2025-06-02",
	})
	require.NoError(t, err)

	slots, err := svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", stID)
	require.NoError(t, err)
	assert.Empty(t, slots)

	require.NoError(t, svc.DeleteBlockedDate(context.Background(), blocked.ID))

	slots, err = svc.ResolveAvailableSlots(context.Background(), "e1", "2025-06-02", stID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}
