package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coachbooking/internal/models"
	"coachbooking/pkg/response"

	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### availability rules ####

func (s *Storage) CreateAvailabilityRule(ctx context.Context, rule *models.AvailabilityRule) (string, error) {
	const op = "storage.postgres.CreateAvailabilityRule"

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO availability_rules (expert_id, day_of_week, start_min, end_min)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		rule.ExpertID,
		int(rule.DayOfWeek),
		rule.StartMinute,
		rule.EndMinute,
	).Scan(&rule.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return rule.ID, nil
}

func (s *Storage) GetAvailabilityRule(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	const op = "storage.postgres.GetAvailabilityRule"

	var rule models.AvailabilityRule
	var day int

	err := s.db.QueryRowContext(ctx,
		`SELECT id, expert_id, day_of_week, start_min, end_min
		FROM availability_rules WHERE id=$1`, id).
		Scan(&rule.ID, &rule.ExpertID, &day, &rule.StartMinute, &rule.EndMinute)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rule.DayOfWeek = time.Weekday(day)

	return &rule, nil
}

func (s *Storage) ListAvailabilityRules(ctx context.Context, expertID string) ([]*models.AvailabilityRule, error) {
	const op = "storage.postgres.ListAvailabilityRules"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expert_id, day_of_week, start_min, end_min
		FROM availability_rules
		WHERE expert_id=$1
		ORDER BY day_of_week, start_min`, expertID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var rules []*models.AvailabilityRule
	for rows.Next() {
		var rule models.AvailabilityRule
		var day int

		err := rows.Scan(&rule.ID, &rule.ExpertID, &day, &rule.StartMinute, &rule.EndMinute)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		rule.DayOfWeek = time.Weekday(day)
		rules = append(rules, &rule)
	}

	return rules, nil
}

func (s *Storage) UpdateAvailabilityRule(ctx context.Context, rule *models.AvailabilityRule) error {
	const op = "storage.postgres.UpdateAvailabilityRule"

	res, err := s.db.ExecContext(ctx,
		`UPDATE availability_rules
		SET expert_id=$1, day_of_week=$2, start_min=$3, end_min=$4
		WHERE id=$5`,
		rule.ExpertID,
		int(rule.DayOfWeek),
		rule.StartMinute,
		rule.EndMinute,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteAvailabilityRule(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteAvailabilityRule"

	res, err := s.db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### blocked dates ####

func (s *Storage) CreateBlockedDate(ctx context.Context, blocked *models.BlockedDate) (string, error) {
	const op = "storage.postgres.CreateBlockedDate"

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO blocked_dates (expert_id, blocked_on)
		VALUES ($1, $2)
		ON CONFLICT (expert_id, blocked_on) DO UPDATE SET expert_id = EXCLUDED.expert_id
		RETURNING id`,
		blocked.ExpertID,
		blocked.Date,
	).Scan(&blocked.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return blocked.ID, nil
}

func (s *Storage) ListBlockedDates(ctx context.Context, expertID string) ([]*models.BlockedDate, error) {
	const op = "storage.postgres.ListBlockedDates"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expert_id, blocked_on
		FROM blocked_dates
		WHERE expert_id=$1
		ORDER BY blocked_on`, expertID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var blocked []*models.BlockedDate
	for rows.Next() {
		var b models.BlockedDate

		err := rows.Scan(&b.ID, &b.ExpertID, &b.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		blocked = append(blocked, &b)
	}

	return blocked, nil
}

func (s *Storage) DeleteBlockedDate(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBlockedDate"

	res, err := s.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### session types ####

func (s *Storage) CreateSessionType(ctx context.Context, st *models.SessionType) (string, error) {
	const op = "storage.postgres.CreateSessionType"

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO session_types (expert_id, name, duration_minutes, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		st.ExpertID,
		st.Name,
		st.DurationMinutes,
		st.PriceCents,
	).Scan(&st.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return st.ID, nil
}

func (s *Storage) GetSessionType(ctx context.Context, id string) (*models.SessionType, error) {
	const op = "storage.postgres.GetSessionType"

	var st models.SessionType

	err := s.db.QueryRowContext(ctx,
		`SELECT id, expert_id, name, duration_minutes, price_cents
		FROM session_types WHERE id=$1`, id).
		Scan(&st.ID, &st.ExpertID, &st.Name, &st.DurationMinutes, &st.PriceCents)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &st, nil
}

func (s *Storage) ListSessionTypes(ctx context.Context, expertID string) ([]*models.SessionType, error) {
	const op = "storage.postgres.ListSessionTypes"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expert_id, name, duration_minutes, price_cents
		FROM session_types
		WHERE expert_id=$1
		ORDER BY name`, expertID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var types []*models.SessionType
	for rows.Next() {
		var st models.SessionType

		err := rows.Scan(&st.ID, &st.ExpertID, &st.Name, &st.DurationMinutes, &st.PriceCents)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		types = append(types, &st)
	}

	return types, nil
}

// #### bookings ####

// CreateBooking inserts a booking. The bookings table carries an exclusion
// constraint on (expert_id, time range) for non-cancelled rows, so a
// concurrent overlapping insert surfaces as ErrBookingConflict.
func (s *Storage) CreateBooking(ctx context.Context, booking *models.Booking) (string, error) {
	const op = "storage.postgres.CreateBooking"

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO bookings (expert_id, session_type_id, start_at, end_at, status, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		booking.ExpertID,
		booking.SessionTypeID,
		booking.Start,
		booking.End,
		string(booking.Status),
		booking.Note,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && (sqlErr.Code == "23P01" || sqlErr.Code == "23505") {
			return "", fmt.Errorf("%s: %w", op, response.ErrBookingConflict)
		}
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return booking.ID, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var booking models.Booking
	var status string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, expert_id, session_type_id, start_at, end_at, status, note, created_at
		FROM bookings WHERE id=$1`, id).
		Scan(
			&booking.ID,
			&booking.ExpertID,
			&booking.SessionTypeID,
			&booking.Start,
			&booking.End,
			&status,
			&booking.Note,
			&booking.CreatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Status = models.BookingStatus(status)

	return &booking, nil
}

// ListBookings returns the expert's non-cancelled bookings intersecting
// [from, to).
func (s *Storage) ListBookings(ctx context.Context, expertID string, from, to time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expert_id, session_type_id, start_at, end_at, status, note, created_at
		FROM bookings
		WHERE expert_id=$1 AND status != 'cancelled' AND start_at < $3 AND end_at > $2
		ORDER BY start_at`, expertID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var booking models.Booking
		var status string

		err := rows.Scan(
			&booking.ID,
			&booking.ExpertID,
			&booking.SessionTypeID,
			&booking.Start,
			&booking.End,
			&status,
			&booking.Note,
			&booking.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		booking.Status = models.BookingStatus(status)
		bookings = append(bookings, &booking)
	}

	return bookings, nil
}

func (s *Storage) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE id=$2`, string(status), bookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
