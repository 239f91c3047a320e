package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrAppointmentNotFound is returned by MarkSent when no row matched the id.
var ErrAppointmentNotFound = errors.New("reminders: appointment not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads reminder candidates from appointments and writes sent-flags.
// appointment_date and start_time hold clinic-local wall-clock values, so
// every bound is converted to wall-clock in loc before it reaches SQL.
type Store struct {
	db  DB
	loc *time.Location
}

// NewStore creates an appointment store for a clinic in loc.
func NewStore(db DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

const listDueQuery = `
	SELECT a.id, a.patient_id, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), p.phone,
		(a.appointment_date + a.start_time) AS starts_at, a.status
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	WHERE a.status = 'scheduled'
		AND a.%s = false
		AND p.phone IS NOT NULL AND btrim(p.phone) <> ''
		AND (a.appointment_date + a.start_time) BETWEEN $1::timestamp AND $2::timestamp
	ORDER BY a.appointment_date, a.start_time`

// ListDue returns scheduled, not-yet-reminded appointments starting within
// [from, to] inclusive.
func (s *Store) ListDue(ctx context.Context, t Threshold, from, to time.Time) ([]Appointment, error) {
	column, err := sentColumn(t)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, fmt.Sprintf(listDueQuery, column), s.wallClock(from), s.wallClock(to))
	if err != nil {
		return nil, fmt.Errorf("reminders: list due %s: %w", t.Name, err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		var a Appointment
		var phone *string
		var startsAt time.Time
		var status string
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientFirstName, &a.PatientLastName, &phone, &startsAt, &status); err != nil {
			return nil, fmt.Errorf("reminders: scan appointment: %w", err)
		}
		if phone != nil {
			a.Phone = *phone
		}
		a.StartsAt = s.fromWallClock(startsAt)
		a.Status = AppointmentStatus(status)
		result = append(result, a)
	}
	return result, rows.Err()
}

// MarkSent flips the threshold's sent-flag. Setting an already-true flag is a no-op.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID, t Threshold) error {
	column, err := sentColumn(t)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		fmt.Sprintf(`UPDATE appointments SET %s = true, updated_at = now() WHERE id = $1`, column), id)
	if err != nil {
		return fmt.Errorf("reminders: mark sent %s: %w", t.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrAppointmentNotFound, id)
	}
	return nil
}

// wallClock drops the zone after moving t into the clinic location.
func (s *Store) wallClock(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}

// fromWallClock reads a zone-less timestamp as clinic-local.
func (s *Store) fromWallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.loc)
}

func sentColumn(t Threshold) (string, error) {
	if _, ok := thresholdByColumn(t.SentColumn()); !ok {
		return "", fmt.Errorf("reminders: unknown threshold %q", t.Name)
	}
	return t.SentColumn(), nil
}
