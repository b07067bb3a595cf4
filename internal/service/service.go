package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachbooking/api"
	"coachbooking/internal/idempotency"
	"coachbooking/internal/lock"
	"coachbooking/internal/models"
	"coachbooking/internal/schedule"
	"coachbooking/pkg/response"
)

type Service struct {
	store    Store
	locker   lock.Locker
	idem     idempotency.Store
	resolver *schedule.Resolver
	lockTTL  time.Duration
	now      func() time.Time
}

type Store interface {
	// Availability Rules
	CreateAvailabilityRule(ctx context.Context, rule *models.AvailabilityRule) (string, error)
	GetAvailabilityRule(ctx context.Context, id string) (*models.AvailabilityRule, error)
	ListAvailabilityRules(ctx context.Context, expertID string) ([]*models.AvailabilityRule, error)
	UpdateAvailabilityRule(ctx context.Context, rule *models.AvailabilityRule) error
	DeleteAvailabilityRule(ctx context.Context, id string) error

	// Blocked Dates
	CreateBlockedDate(ctx context.Context, blocked *models.BlockedDate) (string, error)
	ListBlockedDates(ctx context.Context, expertID string) ([]*models.BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, id string) error

	// Session Types
	CreateSessionType(ctx context.Context, st *models.SessionType) (string, error)
	GetSessionType(ctx context.Context, id string) (*models.SessionType, error)
	ListSessionTypes(ctx context.Context, expertID string) ([]*models.SessionType, error)

	// Bookings
	CreateBooking(ctx context.Context, booking *models.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, expertID string, from, to time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
}

type Option func(*Service)

// WithClock overrides the service clock, used by the resolver's past-slot
// filter.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store Store, locker lock.Locker, idem idempotency.Store, lockTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:   store,
		locker:  locker,
		idem:    idem,
		lockTTL: lockTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.resolver = schedule.NewResolver(s.now)

	return s
}

// #### availability resolution ####

// ResolveAvailableSlots produces the bookable slot set for one expert, date
// and session type. An empty set is a normal outcome. Nothing is cached:
// every call fetches fresh rules, blocked dates and bookings.
func (s *Service) ResolveAvailableSlots(ctx context.Context, expertID, dateStr, sessionTypeID string) ([]*api.SlotResponse, error) {
	const op = "service.ResolveAvailableSlots"

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrInvalidInput)
	}

	sessionType, err := s.store.GetSessionType(ctx, sessionTypeID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sessionType.ExpertID != expertID {
		return nil, fmt.Errorf("%s: session type does not belong to expert: %w", op, response.ErrInvalidInput)
	}

	if sessionType.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%s: non-positive duration: %w", op, response.ErrInvalidInput)
	}

	slots, err := s.resolveSlots(ctx, expertID, date, sessionType.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		result = append(result, &api.SlotResponse{Start: slot.Start, End: slot.End})
	}

	return result, nil
}

func (s *Service) resolveSlots(ctx context.Context, expertID string, date time.Time, durationMinutes int) ([]models.Slot, error) {
	rules, err := s.store.ListAvailabilityRules(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	blocked, err := s.store.ListBlockedDates(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}

	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	bookings, err := s.store.ListBookings(ctx, expertID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	ruleVals := make([]models.AvailabilityRule, 0, len(rules))
	for _, r := range rules {
		ruleVals = append(ruleVals, *r)
	}

	blockedVals := make([]models.BlockedDate, 0, len(blocked))
	for _, b := range blocked {
		blockedVals = append(blockedVals, *b)
	}

	bookingVals := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		bookingVals = append(bookingVals, *b)
	}

	return s.resolver.Resolve(date, durationMinutes, ruleVals, blockedVals, bookingVals), nil
}

// #### bookings ####

// CreateBooking commits a booking exactly once. A redis lock narrows the
// race window; the storage exclusion constraint is the point of truth and
// turns a lost race into ErrBookingConflict. A request retried with the
// same idempotency key returns the original booking.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest, idempotencyKey *string) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	if idempotencyKey != nil {
		bookingID, err := s.idem.Get(ctx, *idempotencyKey)
		if err == nil {
			return s.GetBooking(ctx, bookingID)
		}
		if !errors.Is(err, idempotency.ErrNotFound) {
			return nil, fmt.Errorf("%s: idempotency lookup: %w", op, err)
		}
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, response.ErrInvalidInput)
	}
	start = start.UTC()

	sessionType, err := s.store.GetSessionType(ctx, req.SessionTypeID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sessionType.ExpertID != req.ExpertID {
		return nil, fmt.Errorf("%s: session type does not belong to expert: %w", op, response.ErrInvalidInput)
	}

	lockKey := fmt.Sprintf("expert:%s:%d", req.ExpertID, start.Unix())

	locked, err := s.locker.Lock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	booking := &models.Booking{
		ExpertID:      req.ExpertID,
		SessionTypeID: req.SessionTypeID,
		Start:         start,
		End:           start.Add(time.Duration(sessionType.DurationMinutes) * time.Minute),
		Status:        models.BookingPending,
		Note:          req.Note,
	}

	// the insert is a single statement; the exclusion constraint on
	// (expert_id, time range) makes the overlap check atomic
	bookingID, err := s.store.CreateBooking(ctx, booking)
	if err != nil {
		if errors.Is(err, response.ErrBookingConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrBookingConflict)
		}
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	if idempotencyKey != nil {
		if err := s.idem.Set(ctx, *idempotencyKey, bookingID, 24*time.Hour); err != nil {
			return nil, fmt.Errorf("%s: idempotency store: %w", op, err)
		}
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingResponse(booking), nil
}

func (s *Service) ConfirmBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

// CancelBooking frees the booking's time range: cancelled bookings never
// block slot resolution.
func (s *Service) CancelBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingCancelled)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func bookingResponse(booking *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:            booking.ID,
		ExpertID:      booking.ExpertID,
		SessionTypeID: booking.SessionTypeID,
		Start:         booking.Start,
		End:           booking.End,
		Status:        string(booking.Status),
		Note:          booking.Note,
		CreatedAt:     booking.CreatedAt,
	}
}

// #### availability rules ####

func (s *Service) CreateAvailabilityRule(ctx context.Context, req *api.AvailabilityRuleRequest) (*api.AvailabilityRuleResponse, error) {
	const op = "service.CreateAvailabilityRule"

	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.store.CreateAvailabilityRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAvailabilityRule(ctx, id)
}

func (s *Service) GetAvailabilityRule(ctx context.Context, id string) (*api.AvailabilityRuleResponse, error) {
	const op = "service.GetAvailabilityRule"

	rule, err := s.store.GetAvailabilityRule(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ruleResponse(rule), nil
}

func (s *Service) ListAvailabilityRules(ctx context.Context, expertID string) ([]*api.AvailabilityRuleResponse, error) {
	const op = "service.ListAvailabilityRules"

	rules, err := s.store.ListAvailabilityRules(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.AvailabilityRuleResponse, 0, len(rules))
	for _, rule := range rules {
		result = append(result, ruleResponse(rule))
	}

	return result, nil
}

func (s *Service) UpdateAvailabilityRule(ctx context.Context, id string, req *api.AvailabilityRuleRequest) (*api.AvailabilityRuleResponse, error) {
	const op = "service.UpdateAvailabilityRule"

	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rule.ID = id

	err = s.store.UpdateAvailabilityRule(ctx, rule)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAvailabilityRule(ctx, id)
}

func (s *Service) DeleteAvailabilityRule(ctx context.Context, id string) error {
	const op = "service.DeleteAvailabilityRule"

	err := s.store.DeleteAvailabilityRule(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func ruleFromRequest(req *api.AvailabilityRuleRequest) (*models.AvailabilityRule, error) {
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return nil, fmt.Errorf("invalid day_of_week: %w", response.ErrInvalidInput)
	}

	startMin, err := schedule.ParseMinute(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", response.ErrInvalidInput)
	}

	endMin, err := schedule.ParseMinute(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", response.ErrInvalidInput)
	}

	if startMin >= endMin {
		return nil, fmt.Errorf("start_time must be before end_time: %w", response.ErrInvalidInput)
	}

	return &models.AvailabilityRule{
		ExpertID:    req.ExpertID,
		DayOfWeek:   time.Weekday(req.DayOfWeek),
		StartMinute: startMin,
		EndMinute:   endMin,
	}, nil
}

func ruleResponse(rule *models.AvailabilityRule) *api.AvailabilityRuleResponse {
	return &api.AvailabilityRuleResponse{
		ID:        rule.ID,
		ExpertID:  rule.ExpertID,
		DayOfWeek: int(rule.DayOfWeek),
		StartTime: schedule.FormatMinute(rule.StartMinute),
		EndTime:   schedule.FormatMinute(rule.EndMinute),
	}
}

// #### blocked dates ####

func (s *Service) CreateBlockedDate(ctx context.Context, req *api.BlockedDateRequest) (*api.BlockedDateResponse, error) {
	const op = "service.CreateBlockedDate"

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrInvalidInput)
	}

	blocked := &models.BlockedDate{
		ExpertID: req.ExpertID,
		Date:     date,
	}

	id, err := s.store.CreateBlockedDate(ctx, blocked)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	blocked.ID = id

	return blockedDateResponse(blocked), nil
}

func (s *Service) ListBlockedDates(ctx context.Context, expertID string) ([]*api.BlockedDateResponse, error) {
	const op = "service.ListBlockedDates"

	blocked, err := s.store.ListBlockedDates(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BlockedDateResponse, 0, len(blocked))
	for _, b := range blocked {
		result = append(result, blockedDateResponse(b))
	}

	return result, nil
}

func (s *Service) DeleteBlockedDate(ctx context.Context, id string) error {
	const op = "service.DeleteBlockedDate"

	err := s.store.DeleteBlockedDate(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func blockedDateResponse(blocked *models.BlockedDate) *api.BlockedDateResponse {
	return &api.BlockedDateResponse{
		ID:       blocked.ID,
		ExpertID: blocked.ExpertID,
		Date:     blocked.Date.Format("2006-01-02"),
	}
}

// #### session types ####

func (s *Service) CreateSessionType(ctx context.Context, req *api.SessionTypeRequest) (*api.SessionTypeResponse, error) {
	const op = "service.CreateSessionType"

	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%s: non-positive duration: %w", op, response.ErrInvalidInput)
	}

	st := &models.SessionType{
		ExpertID:        req.ExpertID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
	}

	id, err := s.store.CreateSessionType(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSessionType(ctx, id)
}

func (s *Service) GetSessionType(ctx context.Context, id string) (*api.SessionTypeResponse, error) {
	const op = "service.GetSessionType"

	st, err := s.store.GetSessionType(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessionTypeResponse(st), nil
}

func (s *Service) ListSessionTypes(ctx context.Context, expertID string) ([]*api.SessionTypeResponse, error) {
	const op = "service.ListSessionTypes"

	types, err := s.store.ListSessionTypes(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.SessionTypeResponse, 0, len(types))
	for _, st := range types {
		result = append(result, sessionTypeResponse(st))
	}

	return result, nil
}

func sessionTypeResponse(st *models.SessionType) *api.SessionTypeResponse {
	return &api.SessionTypeResponse{
		ID:              st.ID,
		ExpertID:        st.ExpertID,
		Name:            st.Name,
		DurationMinutes: st.DurationMinutes,
		PriceCents:      st.PriceCents,
	}
}
