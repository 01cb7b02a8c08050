package reschedule_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeBookingRepo struct {
	booking     *domain.Booking
	occupants   []*domain.Booking
	entry       *domain.RescheduleEntry
	rescheduled bool
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	if f.booking == nil {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return f.booking, nil
}

func (f *fakeBookingRepo) GetConfirmedAtSlot(ctx context.Context, date time.Time, startTime types.TimeString) ([]*domain.Booking, error) {
	return f.occupants, nil
}

func (f *fakeBookingRepo) Reschedule(ctx context.Context, id int64, toDate time.Time, toStartTime types.TimeString, rescheduledBy string) error {
	f.rescheduled = true
	return nil
}

func (f *fakeBookingRepo) AddRescheduleEntry(ctx context.Context, entry *domain.RescheduleEntry) error {
	f.entry = entry
	return nil
}

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:          10,
		Reference:   "ref-123",
		BookingDate: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		StartTime:   "10:00",
		Status:      domain.StatusConfirmed,
	}
}

func testRequest() *Request {
	return &Request{
		BookingID:     10,
		ToDate:        time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
		ToStartTime:   "14:00",
		RescheduledBy: "admin",
	}
}

func newTestUseCase(repo *fakeBookingRepo) *UseCase {
	uc := NewUseCase(repo, fakeTxManager{}, nopLogger{})
	uc.timeProvider = fixedTime{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	return uc
}

func TestExecute_ReschedulesAndRecordsHistory(t *testing.T) {
	repo := &fakeBookingRepo{booking: confirmedBooking()}
	uc := newTestUseCase(repo)

	resp, err := uc.Execute(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.ID)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.True(t, repo.rescheduled)

	require.NotNil(t, repo.entry, "history entry is mandatory")
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), repo.entry.FromDate)
	assert.Equal(t, types.TimeString("10:00"), repo.entry.FromStartTime)
	assert.Equal(t, types.TimeString("14:00"), repo.entry.ToStartTime)
	assert.Equal(t, "admin", repo.entry.RescheduledBy)
}

func TestExecute_NotFound(t *testing.T) {
	uc := newTestUseCase(&fakeBookingRepo{})

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_CancelledBookingCannotBeRescheduled(t *testing.T) {
	b := confirmedBooking()
	b.Status = domain.StatusCancelled
	repo := &fakeBookingRepo{booking: b}
	uc := newTestUseCase(repo)

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrCannotReschedule)
	assert.False(t, repo.rescheduled)
}

func TestExecute_SameSlotRejected(t *testing.T) {
	repo := &fakeBookingRepo{booking: confirmedBooking()}
	uc := newTestUseCase(repo)

	req := testRequest()
	req.ToDate = repo.booking.BookingDate
	req.ToStartTime = repo.booking.StartTime

	_, err := uc.Execute(context.Background(), req)

	require.ErrorIs(t, err, ErrSameSlot)
}

func TestExecute_DestinationSlotTaken(t *testing.T) {
	repo := &fakeBookingRepo{
		booking:   confirmedBooking(),
		occupants: []*domain.Booking{{ID: 99, Status: domain.StatusConfirmed}},
	}
	uc := newTestUseCase(repo)

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrSlotTaken)
	assert.Nil(t, repo.entry, "conflicting reschedule must not write history")
}

func TestExecute_OwnBookingAtDestinationIgnored(t *testing.T) {
	// Перенос confirmed записи на слот, где она же и числится
	// (например, смена только времени в пределах даты) — не конфликт
	b := confirmedBooking()
	repo := &fakeBookingRepo{
		booking:   b,
		occupants: []*domain.Booking{b},
	}
	uc := newTestUseCase(repo)

	resp, err := uc.Execute(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.ID)
}

func TestExecute_ValidationErrors(t *testing.T) {
	uc := newTestUseCase(&fakeBookingRepo{booking: confirmedBooking()})

	longNotes := string(make([]byte, domain.MaxNotesLength+1))

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"zero bookingId", func(r *Request) { r.BookingID = 0 }},
		{"missing toDate", func(r *Request) { r.ToDate = time.Time{} }},
		{"bad toStartTime", func(r *Request) { r.ToStartTime = "later" }},
		{"missing rescheduledBy", func(r *Request) { r.RescheduledBy = " " }},
		{"notes too long", func(r *Request) { r.Notes = &longNotes }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)

			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
