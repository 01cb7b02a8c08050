package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeBookingRepo struct {
	bookings []*domain.Booking
}

func (f *fakeBookingRepo) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	return f.bookings, nil
}

type fakeReservationRepo struct {
	reservations []*domain.SlotReservation
}

func (f *fakeReservationRepo) GetActiveByDate(ctx context.Context, date time.Time, now time.Time) ([]*domain.SlotReservation, error) {
	return f.reservations, nil
}

func testSchedule() Schedule {
	return Schedule{
		OpenTime:       "09:00",
		CloseTime:      "12:00",
		SlotDuration:   60,
		ClosedWeekdays: map[time.Weekday]bool{time.Sunday: true},
	}
}

func newTestUseCase(books *fakeBookingRepo, res *fakeReservationRepo) *UseCase {
	uc := NewUseCase(books, res, testSchedule(), nopLogger{})
	uc.timeProvider = fixedTime{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	return uc
}

func slotMap(resp *Response) map[types.TimeString]bool {
	m := make(map[types.TimeString]bool, len(resp.Slots))
	for _, s := range resp.Slots {
		m[s.StartTime] = s.Available
	}
	return m
}

func TestExecute_FullGridWhenFree(t *testing.T) {
	uc := newTestUseCase(&fakeBookingRepo{}, &fakeReservationRepo{})

	// вторник
	resp, err := uc.Execute(context.Background(), &Request{Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)})

	require.NoError(t, err)
	require.Len(t, resp.Slots, 3)
	assert.Equal(t, types.TimeString("09:00"), resp.Slots[0].StartTime)
	assert.Equal(t, types.TimeString("11:00"), resp.Slots[2].StartTime)
	for _, s := range resp.Slots {
		assert.True(t, s.Available)
	}
}

func TestExecute_BookedAndHeldSlotsUnavailable(t *testing.T) {
	books := &fakeBookingRepo{
		bookings: []*domain.Booking{{StartTime: "09:00", Status: domain.StatusConfirmed}},
	}
	res := &fakeReservationRepo{
		reservations: []*domain.SlotReservation{{StartTime: "11:00"}},
	}
	uc := newTestUseCase(books, res)

	resp, err := uc.Execute(context.Background(), &Request{Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)})

	require.NoError(t, err)
	availability := slotMap(resp)
	assert.False(t, availability["09:00"], "confirmed booking blocks the slot")
	assert.True(t, availability["10:00"])
	assert.False(t, availability["11:00"], "active hold blocks the slot")
}

func TestExecute_ClosedWeekdayReturnsEmptyGrid(t *testing.T) {
	uc := newTestUseCase(&fakeBookingRepo{}, &fakeReservationRepo{})

	// воскресенье
	resp, err := uc.Execute(context.Background(), &Request{Date: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)})

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_MissingDateRejected(t *testing.T) {
	uc := newTestUseCase(&fakeBookingRepo{}, &fakeReservationRepo{})

	_, err := uc.Execute(context.Background(), &Request{})

	require.ErrorIs(t, err, ErrInvalidInput)
}
