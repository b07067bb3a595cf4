package api

import "time"

type AvailabilityRuleRequest struct {
	ExpertID  string `json:"expert_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityRuleResponse struct {
	ID        string `json:"id"`
	ExpertID  string `json:"expert_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type BlockedDateRequest struct {
	ExpertID string `json:"expert_id"`
	Date     string `json:"date"`
}

type BlockedDateResponse struct {
	ID       string `json:"id"`
	ExpertID string `json:"expert_id"`
	Date     string `json:"date"`
}

type SessionTypeRequest struct {
	ExpertID        string `json:"expert_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int    `json:"price_cents"`
}

type SessionTypeResponse struct {
	ID              string `json:"id"`
	ExpertID        string `json:"expert_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int    `json:"price_cents"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type BookingRequest struct {
	ExpertID      string `json:"expert_id"`
	SessionTypeID string `json:"session_type_id"`
	StartTime     string `json:"start_time"`
	Note          string `json:"note,omitempty"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	ExpertID      string    `json:"expert_id"`
	SessionTypeID string    `json:"session_type_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type WorkflowStartRequest struct {
	ExpertID string `json:"expert_id"`
}

// WorkflowSelectionRequest carries one selection per call: a session type,
// a date, or a slot start within the currently resolved set.
type WorkflowSelectionRequest struct {
	SessionTypeID *string `json:"session_type_id,omitempty"`
	Date          *string `json:"date,omitempty"`
	SlotStart     *string `json:"slot_start,omitempty"`
}

type WorkflowReviewRequest struct {
	Note string `json:"note,omitempty"`
}

type WorkflowResponse struct {
	ID            string         `json:"id"`
	State         string         `json:"state"`
	ExpertID      string         `json:"expert_id"`
	SessionTypeID string         `json:"session_type_id,omitempty"`
	Date          string         `json:"date,omitempty"`
	Slots         []SlotResponse `json:"slots,omitempty"`
	SelectedSlot  *SlotResponse  `json:"selected_slot,omitempty"`
	Note          string         `json:"note,omitempty"`
	BookingID     string         `json:"booking_id,omitempty"`
}
