package reminders

import (
	"context"
	"time"
)

// AppointmentLister is the read side of the appointment store.
type AppointmentLister interface {
	ListDue(ctx context.Context, t Threshold, from, to time.Time) ([]Appointment, error)
}

// Scanner finds the appointments that entered a threshold window at the
// current instant. It has no side effects.
type Scanner struct {
	store AppointmentLister
	loc   *time.Location
	now   func() time.Time
}

// NewScanner creates a scanner evaluating windows in the clinic location.
func NewScanner(store AppointmentLister, loc *time.Location) *Scanner {
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{store: store, loc: loc, now: time.Now}
}

// WithClock overrides the time source; used by tests and manual replays.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	if now != nil {
		s.now = now
	}
	return s
}

// Scan returns eligible appointments for t. Order is the store's and callers
// must not rely on it.
func (s *Scanner) Scan(ctx context.Context, t Threshold) ([]Appointment, error) {
	from, to := t.Window(s.now().In(s.loc))
	return s.store.ListDue(ctx, t, from, to)
}
