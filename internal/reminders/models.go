// Package reminders sends appointment reminder SMS at fixed lead-times and
// records a durable per-threshold sent-flag so each reminder goes out once.
package reminders

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus mirrors the status column owned by the appointments CRUD layer.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

// Appointment is a scheduled visit joined with the patient's contact details.
type Appointment struct {
	ID               uuid.UUID         `json:"id"`
	PatientID        uuid.UUID         `json:"patient_id"`
	PatientFirstName string            `json:"patient_first_name"`
	PatientLastName  string            `json:"patient_last_name"`
	Phone            string            `json:"phone"`
	StartsAt         time.Time         `json:"starts_at"` // clinic-local
	Status           AppointmentStatus `json:"status"`
}

// ResultStatus is the outcome of one reminder attempt.
type ResultStatus string

const (
	ResultSent   ResultStatus = "sent"
	ResultFailed ResultStatus = "failed"
)

// AppointmentResult reports what happened to one matched appointment.
type AppointmentResult struct {
	AppointmentID uuid.UUID    `json:"appointment_id"`
	Threshold     string       `json:"threshold"`
	Phone         string       `json:"phone,omitempty"`
	Status        ResultStatus `json:"status"`
	Error         string       `json:"error,omitempty"`
}

// Reasons a whole cycle did not attempt any sends.
const (
	SkipCredentialsMissing = "credentials_missing"
)

// CycleResult summarizes one scan-and-dispatch cycle across all thresholds.
type CycleResult struct {
	ProcessedCount int                 `json:"processed_count"`
	SentCount      int                 `json:"sent_count"`
	FailedCount    int                 `json:"failed_count"`
	SkippedReason  string              `json:"skipped_reason,omitempty"`
	Results        []AppointmentResult `json:"results"`
}

func (c *CycleResult) add(results []AppointmentResult) {
	for _, r := range results {
		c.ProcessedCount++
		switch r.Status {
		case ResultSent:
			c.SentCount++
		case ResultFailed:
			c.FailedCount++
		}
		c.Results = append(c.Results, r)
	}
}

// Status is the scheduler state exposed to operators.
type Status struct {
	Initialized  bool `json:"initialized"`
	IsProcessing bool `json:"is_processing"`
}
