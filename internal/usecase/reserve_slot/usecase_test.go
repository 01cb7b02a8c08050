package reserve_slot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
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

type fakeReservationRepo struct {
	bySlot *domain.SlotReservation

	created       *domain.SlotReservation
	createErr     error
	extendedID    int64
	extendedUntil time.Time
	gcCalled      bool
}

func (f *fakeReservationRepo) GetBySlot(ctx context.Context, date time.Time, startTime types.TimeString) (*domain.SlotReservation, error) {
	if f.bySlot == nil {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return f.bySlot, nil
}

func (f *fakeReservationRepo) Create(ctx context.Context, res *domain.SlotReservation) (*domain.SlotReservation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *res
	created.ID = 1
	f.created = &created
	return &created, nil
}

func (f *fakeReservationRepo) ExtendExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	f.extendedID = id
	f.extendedUntil = expiresAt
	return nil
}

func (f *fakeReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.gcCalled = true
	if f.bySlot != nil && f.bySlot.IsExpiredAt(now) {
		f.bySlot = nil
		return 1, nil
	}
	return 0, nil
}

type fakeBookingRepo struct {
	confirmed []*domain.Booking
}

func (f *fakeBookingRepo) GetConfirmedAtSlot(ctx context.Context, date time.Time, startTime types.TimeString) ([]*domain.Booking, error) {
	return f.confirmed, nil
}

func newTestUseCase(resRepo *fakeReservationRepo, bookRepo *fakeBookingRepo, now time.Time) *UseCase {
	uc := NewUseCase(resRepo, bookRepo, fakeTxManager{}, 15, nopLogger{})
	uc.timeProvider = fixedTime{now: now}
	return uc
}

func testRequest(now time.Time) *Request {
	return &Request{
		Date:             now.AddDate(0, 0, 1),
		StartTime:        "10:00",
		BookingReference: "ref-123",
	}
}

func TestExecute_ReservesFreeSlot(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	resRepo := &fakeReservationRepo{}
	uc := newTestUseCase(resRepo, &fakeBookingRepo{}, now)

	resp, err := uc.Execute(context.Background(), testRequest(now))

	require.NoError(t, err)
	assert.True(t, resp.Reserved)
	assert.Equal(t, now.Add(15*time.Minute), resp.ExpiresAt)
	require.NotNil(t, resRepo.created)
	assert.Equal(t, "ref-123", resRepo.created.BookingReference)
	assert.True(t, resRepo.gcCalled, "expired reservations must be collected before the check")
}

func TestExecute_ForeignHoldConflicts(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	resRepo := &fakeReservationRepo{
		bySlot: &domain.SlotReservation{
			ID:               7,
			BookingReference: "someone-else",
			ExpiresAt:        now.Add(10 * time.Minute),
		},
	}
	uc := newTestUseCase(resRepo, &fakeBookingRepo{}, now)

	_, err := uc.Execute(context.Background(), testRequest(now))

	require.ErrorIs(t, err, ErrSlotReserved)
	assert.Nil(t, resRepo.created)
}

func TestExecute_ExpiredForeignHoldDoesNotBlock(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	resRepo := &fakeReservationRepo{
		bySlot: &domain.SlotReservation{
			ID:               7,
			BookingReference: "someone-else",
			ExpiresAt:        now.Add(-time.Second),
		},
	}
	uc := newTestUseCase(resRepo, &fakeBookingRepo{}, now)

	resp, err := uc.Execute(context.Background(), testRequest(now))

	require.NoError(t, err)
	assert.True(t, resp.Reserved)
	require.NotNil(t, resRepo.created, "expired hold must be collected, slot treated as free")
	assert.Equal(t, "ref-123", resRepo.created.BookingReference)
}

func TestExecute_SameReferenceRenewsHold(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	resRepo := &fakeReservationRepo{
		bySlot: &domain.SlotReservation{
			ID:               7,
			BookingReference: "ref-123",
			ExpiresAt:        now.Add(3 * time.Minute),
		},
	}
	uc := newTestUseCase(resRepo, &fakeBookingRepo{}, now)

	resp, err := uc.Execute(context.Background(), testRequest(now))

	require.NoError(t, err)
	assert.True(t, resp.Reserved)
	assert.Equal(t, int64(7), resRepo.extendedID)
	assert.Equal(t, now.Add(15*time.Minute), resRepo.extendedUntil)
	assert.Nil(t, resRepo.created, "renewal must not create a second hold")
}

func TestExecute_BookedSlotRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	bookRepo := &fakeBookingRepo{
		confirmed: []*domain.Booking{{ID: 1, Status: domain.StatusConfirmed}},
	}
	uc := newTestUseCase(&fakeReservationRepo{}, bookRepo, now)

	_, err := uc.Execute(context.Background(), testRequest(now))

	require.ErrorIs(t, err, ErrSlotBooked)
}

func TestExecute_CreateRaceMapsToReserved(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	resRepo := &fakeReservationRepo{createErr: reservationRepo.ErrSlotAlreadyReserved}
	uc := newTestUseCase(resRepo, &fakeBookingRepo{}, now)

	_, err := uc.Execute(context.Background(), testRequest(now))

	require.ErrorIs(t, err, ErrSlotReserved)
}

func TestExecute_PastDateRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(&fakeReservationRepo{}, &fakeBookingRepo{}, now)

	req := testRequest(now)
	req.Date = now.AddDate(0, 0, -1)

	_, err := uc.Execute(context.Background(), req)

	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestExecute_ValidationErrors(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(&fakeReservationRepo{}, &fakeBookingRepo{}, now)

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"missing date", func(r *Request) { r.Date = time.Time{} }},
		{"missing startTime", func(r *Request) { r.StartTime = "" }},
		{"bad startTime format", func(r *Request) { r.StartTime = "25:99" }},
		{"missing reference", func(r *Request) { r.BookingReference = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(now)
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)

			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
