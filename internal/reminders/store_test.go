package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

var appointmentColumns = []string{"id", "patient_id", "first_name", "last_name", "phone", "starts_at", "status"}

func TestStoreListDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := time.Date(2024, 6, 1, 13, 5, 0, 0, clinicZone)
	to := time.Date(2024, 6, 1, 15, 5, 0, 0, clinicZone)
	apptID, patientID := uuid.New(), uuid.New()

	mock.ExpectQuery(`(?s)FROM appointments a\s+JOIN patients p .* a\.reminder_sent_24h = false`).
		WithArgs(
			time.Date(2024, 6, 1, 13, 5, 0, 0, time.UTC),
			time.Date(2024, 6, 1, 15, 5, 0, 0, time.UTC),
		).
		WillReturnRows(pgxmock.NewRows(appointmentColumns).
			AddRow(apptID, patientID, "Ana", "Pop", strPtr("0721234567"), time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC), "scheduled"))

	got, err := NewStore(mock, clinicZone).ListDue(context.Background(), Threshold24h, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, apptID, got[0].ID)
	assert.Equal(t, patientID, got[0].PatientID)
	assert.Equal(t, "Ana", got[0].PatientFirstName)
	assert.Equal(t, "0721234567", got[0].Phone)
	assert.Equal(t, StatusScheduled, got[0].Status)
	assert.True(t, got[0].StartsAt.Equal(time.Date(2024, 6, 1, 14, 0, 0, 0, clinicZone)))
	assert.Equal(t, "14:00", FormatTime(got[0].StartsAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListDueConvertsBoundsToClinicWallClock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// 11:05 UTC is 13:05 at the clinic.
	from := time.Date(2024, 6, 1, 11, 5, 0, 0, time.UTC)
	to := from.Add(10 * time.Minute)

	mock.ExpectQuery(`a\.reminder_sent_1h = false`).
		WithArgs(
			time.Date(2024, 6, 1, 13, 5, 0, 0, time.UTC),
			time.Date(2024, 6, 1, 13, 15, 0, 0, time.UTC),
		).
		WillReturnRows(pgxmock.NewRows(appointmentColumns))

	got, err := NewStore(mock, clinicZone).ListDue(context.Background(), Threshold1h, from, to)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListDueQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM appointments").WillReturnError(errors.New("connection refused"))

	now := time.Now()
	_, err = NewStore(mock, clinicZone).ListDue(context.Background(), Threshold2h, now, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reminders: list due 2h")
}

func TestStoreMarkSent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE appointments SET reminder_sent_2h = true`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewStore(mock, clinicZone).MarkSent(context.Background(), id, Threshold2h))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMarkSentNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE appointments SET reminder_sent_24h = true`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewStore(mock, clinicZone).MarkSent(context.Background(), id, Threshold24h)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestStoreRejectsUnknownThreshold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	bogus := Threshold{Name: "3h", Min: 3 * time.Hour, Max: 3 * time.Hour}
	err = NewStore(mock, clinicZone).MarkSent(context.Background(), uuid.New(), bogus)
	require.Error(t, err)
	_, err = NewStore(mock, clinicZone).ListDue(context.Background(), bogus, time.Now(), time.Now())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
