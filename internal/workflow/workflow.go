package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"coachbooking/api"
	"coachbooking/pkg/response"

	"github.com/google/uuid"
)

type State string

const (
	StateSelectingSessionType State = "selecting_session_type"
	StateSelectingDateTime    State = "selecting_date_time"
	StateReviewing            State = "reviewing"
	StateSubmitting           State = "submitting"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
)

type SlotResolver interface {
	ResolveAvailableSlots(ctx context.Context, expertID, date, sessionTypeID string) ([]*api.SlotResponse, error)
}

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingRequest, idempotencyKey *string) (*api.BookingResponse, error)
}

// Workflow is one user's booking interaction, modelled as an explicit state
// machine: SelectingSessionType -> SelectingDateTime -> Reviewing ->
// Submitting -> Confirmed | Failed. All transitions run under the workflow
// mutex, so a duplicate submit can never slip in while one is in flight.
type Workflow struct {
	mu sync.Mutex

	id       string
	expertID string
	state    State

	sessionTypeID string
	date          string
	slots         []*api.SlotResponse
	selectedSlot  *api.SlotResponse
	note          string
	bookingID     string

	// one idempotency key per confirmed review, so a retried submit after
	// a transport failure cannot double-book
	idempotencyKey string

	resolver    SlotResolver
	creator     BookingCreator
	horizonDays int
	now         func() time.Time
}

func newWorkflow(expertID string, resolver SlotResolver, creator BookingCreator, horizonDays int, now func() time.Time) *Workflow {
	return &Workflow{
		id:          uuid.New().String(),
		expertID:    expertID,
		state:       StateSelectingSessionType,
		resolver:    resolver,
		creator:     creator,
		horizonDays: horizonDays,
		now:         now,
	}
}

func (w *Workflow) ID() string {
	return w.id
}

// SelectSessionType fixes the session type and with it the slot granularity
// used for every later resolution.
func (w *Workflow) SelectSessionType(sessionTypeID string) error {
	const op = "workflow.SelectSessionType"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelectingSessionType {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	if sessionTypeID == "" {
		return fmt.Errorf("%s: session_type_id is required: %w", op, response.ErrInvalidInput)
	}

	w.sessionTypeID = sessionTypeID
	w.state = StateSelectingDateTime

	return nil
}

// SelectDate picks a calendar date within the booking horizon and resolves
// the slot set for it. Changing the date always clears the previously
// selected slot: a selection must belong to the most recently resolved set.
func (w *Workflow) SelectDate(ctx context.Context, date string) ([]*api.SlotResponse, error) {
	const op = "workflow.SelectDate"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelectingDateTime {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrInvalidInput)
	}

	today := truncateToDate(w.now().UTC())
	if day.Before(today) || day.After(today.AddDate(0, 0, w.horizonDays)) {
		return nil, fmt.Errorf("%s: date outside booking horizon: %w", op, response.ErrInvalidInput)
	}

	slots, err := w.resolver.ResolveAvailableSlots(ctx, w.expertID, date, w.sessionTypeID)
	if err != nil {
		// transient fetch failure: selections stay intact, same call can
		// be retried
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w.date = date
	w.slots = slots
	w.selectedSlot = nil

	return slots, nil
}

// SelectSlot picks one slot out of the most recently resolved set. A start
// time that is not in the current set is rejected, which is what makes a
// stale selection impossible.
func (w *Workflow) SelectSlot(slotStart string) error {
	const op = "workflow.SelectSlot"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelectingDateTime {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	if w.date == "" {
		return fmt.Errorf("%s: no date selected: %w", op, response.ErrInvalidState)
	}

	start, err := time.Parse(time.RFC3339, slotStart)
	if err != nil {
		return fmt.Errorf("%s: invalid slot_start: %w", op, response.ErrInvalidInput)
	}

	for _, slot := range w.slots {
		if slot.Start.Equal(start) {
			w.selectedSlot = slot
			return nil
		}
	}

	return fmt.Errorf("%s: slot is not in the resolved set: %w", op, response.ErrInvalidInput)
}

// Review presents the captured selection for confirmation. Nothing shared
// is mutated; only the free-text note is captured here.
func (w *Workflow) Review(note string) error {
	const op = "workflow.Review"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelectingDateTime {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	if w.selectedSlot == nil {
		return fmt.Errorf("%s: no slot selected: %w", op, response.ErrInvalidState)
	}

	w.note = note
	w.idempotencyKey = uuid.New().String()
	w.state = StateReviewing

	return nil
}

// Submit issues exactly one booking-creation request. Re-entry while a
// submission is in flight is rejected. A conflict (slot taken concurrently)
// moves the workflow through Failed back to SelectingDateTime with a
// refreshed slot set; any other failure keeps it in Reviewing for a retry.
func (w *Workflow) Submit(ctx context.Context) (*api.BookingResponse, error) {
	const op = "workflow.Submit"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateReviewing {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	w.state = StateSubmitting

	key := w.idempotencyKey
	booking, err := w.creator.CreateBooking(ctx, &api.BookingRequest{
		ExpertID:      w.expertID,
		SessionTypeID: w.sessionTypeID,
		StartTime:     w.selectedSlot.Start.Format(time.RFC3339),
		Note:          w.note,
	}, &key)

	if err != nil {
		if errors.Is(err, response.ErrBookingConflict) {
			w.state = StateFailed
			w.failBack(ctx)
			return nil, fmt.Errorf("%s: %w", op, response.ErrBookingConflict)
		}

		w.state = StateReviewing

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w.bookingID = booking.ID
	w.state = StateConfirmed

	return booking, nil
}

// failBack returns a failed workflow to date/time selection with a slot set
// that excludes the booking that won the race. The conflict is recoverable,
// not fatal.
func (w *Workflow) failBack(ctx context.Context) {
	w.selectedSlot = nil
	w.idempotencyKey = ""

	slots, err := w.resolver.ResolveAvailableSlots(ctx, w.expertID, w.date, w.sessionTypeID)
	if err == nil {
		w.slots = slots
	} else {
		w.slots = nil
	}

	w.state = StateSelectingDateTime
}

// Reset clears every captured selection unconditionally, whatever state the
// workflow was in.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sessionTypeID = ""
	w.date = ""
	w.slots = nil
	w.selectedSlot = nil
	w.note = ""
	w.bookingID = ""
	w.idempotencyKey = ""
	w.state = StateSelectingSessionType
}

// Snapshot renders the workflow for the UI layer.
func (w *Workflow) Snapshot() *api.WorkflowResponse {
	w.mu.Lock()
	defer w.mu.Unlock()

	resp := &api.WorkflowResponse{
		ID:            w.id,
		State:         string(w.state),
		ExpertID:      w.expertID,
		SessionTypeID: w.sessionTypeID,
		Date:          w.date,
		Note:          w.note,
		BookingID:     w.bookingID,
	}

	for _, slot := range w.slots {
		resp.Slots = append(resp.Slots, *slot)
	}

	if w.selectedSlot != nil {
		selected := *w.selectedSlot
		resp.SelectedSlot = &selected
	}

	return resp
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
