package reminders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/dental-clinic-platform/internal/messaging"
	"github.com/wolfman30/dental-clinic-platform/internal/observability/metrics"
	"github.com/wolfman30/dental-clinic-platform/internal/settings"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// SMSSender abstracts the outbound SMS gateway.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SentMarker persists the per-threshold sent-flag.
type SentMarker interface {
	MarkSent(ctx context.Context, id uuid.UUID, t Threshold) error
}

// DispatcherConfig holds the knobs of the dispatch loop.
type DispatcherConfig struct {
	// SendDelay is slept between two sends of the same batch to stay under
	// the gateway's rate limit. Zero disables it.
	SendDelay  time.Duration
	DateLayout string
	Phone      messaging.PhoneRegion
}

// Dispatcher sends one threshold's reminders, sequentially.
type Dispatcher struct {
	scanner *Scanner
	marker  SentMarker
	cfg     DispatcherConfig
	metrics *metrics.ReminderMetrics
	logger  *logging.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatch loop.
func NewDispatcher(scanner *Scanner, marker SentMarker, cfg DispatcherConfig, m *metrics.ReminderMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Phone.CountryCode == "" {
		cfg.Phone = messaging.DefaultRegion
	}
	if cfg.SendDelay < 0 {
		cfg.SendDelay = 0
	}
	return &Dispatcher{
		scanner: scanner,
		marker:  marker,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Dispatch scans t's window and sends one SMS per matched appointment. A
// failed send leaves the flag false so a later tick inside the same window
// can try again; it never stops the rest of the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, t Threshold, cfg settings.ReminderConfig, sender SMSSender) ([]AppointmentResult, error) {
	if !cfg.Enabled(t.Name) {
		d.logger.Debug("reminders: threshold disabled", "threshold", t.Name)
		return nil, nil
	}
	template := cfg.Template(t.Name)
	if template == "" {
		d.logger.Warn("reminders: template missing, skipping threshold", "threshold", t.Name)
		return nil, nil
	}

	appointments, err := d.scanner.Scan(ctx, t)
	if err != nil {
		return nil, err
	}
	appointments = d.withPhone(t, appointments)
	if len(appointments) == 0 {
		return nil, nil
	}
	d.logger.Info("reminders: dispatching", "threshold", t.Name, "count", len(appointments))

	results := make([]AppointmentResult, 0, len(appointments))
	for i, appt := range appointments {
		result := AppointmentResult{AppointmentID: appt.ID, Threshold: t.Name}

		if i > 0 && d.cfg.SendDelay > 0 {
			if err := d.sleep(ctx, d.cfg.SendDelay); err != nil {
				return results, err
			}
		}

		to := d.cfg.Phone.Normalize(appt.Phone)
		result.Phone = to
		body := RenderMessage(template, patientName(appt), FormatDate(appt.StartsAt, d.cfg.DateLayout), FormatTime(appt.StartsAt))

		if err := sender.SendSMS(ctx, to, body); err != nil {
			result.Status = ResultFailed
			result.Error = err.Error()
			d.metrics.ObserveSend(t.Name, string(ResultFailed))
			d.logger.Warn("reminders: send failed",
				"threshold", t.Name, "appointment_id", appt.ID, "error", err)
			results = append(results, result)
			continue
		}

		result.Status = ResultSent
		d.metrics.ObserveSend(t.Name, string(ResultSent))
		if err := d.marker.MarkSent(ctx, appt.ID, t); err != nil {
			// The SMS went out; without the flag a later tick may send it again.
			result.Error = "mark sent: " + err.Error()
			d.logger.Error("reminders: sent but flag not persisted",
				"threshold", t.Name, "appointment_id", appt.ID, "error", err)
		} else {
			d.logger.Info("reminders: reminder sent",
				"threshold", t.Name, "appointment_id", appt.ID)
		}
		results = append(results, result)
	}
	return results, nil
}

// withPhone drops appointments without a usable phone before any send. The
// store already filters them; rows edited between scan and send still land here.
func (d *Dispatcher) withPhone(t Threshold, appointments []Appointment) []Appointment {
	kept := appointments[:0]
	for _, appt := range appointments {
		if strings.TrimSpace(appt.Phone) == "" {
			d.logger.Warn("reminders: patient phone missing, excluded from batch",
				"threshold", t.Name, "appointment_id", appt.ID)
			continue
		}
		kept = append(kept, appt)
	}
	return kept
}

func patientName(a Appointment) string {
	if name := strings.TrimSpace(a.PatientFirstName); name != "" {
		return name
	}
	return strings.TrimSpace(a.PatientLastName)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
