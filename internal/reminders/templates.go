package reminders

import (
	"strings"
	"time"
)

// Placeholders substituted into reminder templates.
const (
	PlaceholderPatientName     = "{patient_name}"
	PlaceholderAppointmentDate = "{appointment_date}"
	PlaceholderAppointmentTime = "{appointment_time}"
)

// DefaultDateLayout is the clinic's day.month.year date format.
const DefaultDateLayout = "02.01.2006"

// RenderMessage fills the three known placeholders. Anything else in braces
// is left as written.
func RenderMessage(template, patientName, date, clock string) string {
	r := strings.NewReplacer(
		PlaceholderPatientName, patientName,
		PlaceholderAppointmentDate, date,
		PlaceholderAppointmentTime, clock,
	)
	return r.Replace(template)
}

// FormatDate renders the appointment day with layout, or DefaultDateLayout.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// FormatTime renders a zero-padded 24h HH:MM.
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}
