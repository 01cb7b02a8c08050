package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
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
	booking *domain.Booking
	history []*domain.RescheduleEntry

	cancelledID     int64
	cancelReason    string
	cancelledBy     string
	refundStatus    domain.RefundStatus
	refundAmount    *float64
	completedID     int64
	filterRequested domain.BookingsFilter
	deleteAllCalled bool
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	if f.booking == nil {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return f.booking, nil
}

func (f *fakeBookingRepo) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	f.filterRequested = filter
	if f.booking == nil {
		return nil, nil
	}
	return []*domain.Booking{f.booking}, nil
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, id int64, reason string, cancelledBy string, refundStatus domain.RefundStatus, refundAmount *float64) error {
	f.cancelledID = id
	f.cancelReason = reason
	f.cancelledBy = cancelledBy
	f.refundStatus = refundStatus
	f.refundAmount = refundAmount
	return nil
}

func (f *fakeBookingRepo) Complete(ctx context.Context, id int64) error {
	f.completedID = id
	return nil
}

func (f *fakeBookingRepo) GetRescheduleHistory(ctx context.Context, bookingID int64) ([]*domain.RescheduleEntry, error) {
	return f.history, nil
}

func (f *fakeBookingRepo) DeleteAll(ctx context.Context) error {
	f.deleteAllCalled = true
	return nil
}

func confirmedBooking(start time.Time) *domain.Booking {
	return &domain.Booking{
		ID:           10,
		Reference:    "ref-123",
		ClientName:   "Анна Иванова",
		BookingDate:  time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:    types.NewTimeString(start),
		FinalPrice:   5000,
		Deposit:      1500,
		Status:       domain.StatusConfirmed,
		RefundStatus: domain.RefundNone,
	}
}

func newTestService(repo *fakeBookingRepo, now time.Time) *Service {
	svc := NewService(repo, fakeTxManager{}, domain.NewRefundPolicy(24), nopLogger{})
	svc.timeProvider = fixedTime{now: now}
	return svc
}

func TestCancel_EarlyCancellationRefundsDeposit(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	repo := &fakeBookingRepo{booking: confirmedBooking(start)}
	svc := newTestService(repo, start.Add(-72*time.Hour))

	resp, err := svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{
		Reason:      "клиент попросил отмену",
		CancelledBy: "admin",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, string(domain.RefundPending), resp.RefundStatus)
	require.NotNil(t, resp.RefundAmount)
	assert.Equal(t, 1500.0, *resp.RefundAmount)

	assert.Equal(t, int64(10), repo.cancelledID)
	assert.Equal(t, domain.RefundPending, repo.refundStatus)
}

func TestCancel_LateCancellationDeniesRefund(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	repo := &fakeBookingRepo{booking: confirmedBooking(start)}
	svc := newTestService(repo, start.Add(-2*time.Hour))

	resp, err := svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{
		Reason:      "поздняя отмена",
		CancelledBy: "client",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.RefundDenied), resp.RefundStatus)
	assert.Nil(t, resp.RefundAmount)
	assert.Nil(t, repo.refundAmount)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	b := confirmedBooking(start)
	b.Status = domain.StatusCancelled
	repo := &fakeBookingRepo{booking: b}
	svc := newTestService(repo, start.Add(-72*time.Hour))

	_, err := svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{
		Reason:      "повторная отмена",
		CancelledBy: "admin",
	})

	require.ErrorIs(t, err, ErrCannotCancel)
	assert.Zero(t, repo.cancelledID)
}

func TestCancel_NotFound(t *testing.T) {
	svc := newTestService(&fakeBookingRepo{}, time.Now())

	_, err := svc.Cancel(context.Background(), 99, &models.CancelBookingRequest{
		Reason:      "нет такой записи",
		CancelledBy: "admin",
	})

	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancel_RequiresReason(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeBookingRepo{booking: confirmedBooking(start)}, start.Add(-72*time.Hour))

	_, err := svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{
		Reason:      "  ",
		CancelledBy: "admin",
	})

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestComplete(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	repo := &fakeBookingRepo{booking: confirmedBooking(start)}
	svc := newTestService(repo, start.Add(time.Hour))

	err := svc.Complete(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, int64(10), repo.completedID)
}

func TestComplete_CancelledBookingRejected(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	b := confirmedBooking(start)
	b.Status = domain.StatusCancelled
	repo := &fakeBookingRepo{booking: b}
	svc := newTestService(repo, start)

	err := svc.Complete(context.Background(), 10)

	require.ErrorIs(t, err, ErrCannotComplete)
	assert.Zero(t, repo.completedID)
}

func TestGetByID_IncludesRescheduleHistory(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	repo := &fakeBookingRepo{
		booking: confirmedBooking(start),
		history: []*domain.RescheduleEntry{
			{
				ID:            1,
				BookingID:     10,
				FromDate:      time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
				FromStartTime: "09:00",
				ToDate:        time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
				ToStartTime:   "10:00",
				RescheduledBy: "admin",
			},
		},
	}
	svc := newTestService(repo, start)

	resp, err := svc.GetByID(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.ID)
	require.Len(t, resp.RescheduleHistory, 1)
	assert.Equal(t, "09:00", resp.RescheduleHistory[0].FromStartTime)
}

func TestList_InvalidStatusRejected(t *testing.T) {
	svc := newTestService(&fakeBookingRepo{}, time.Now())

	bad := "unknown"
	_, err := svc.List(context.Background(), &models.ListBookingsRequest{Status: &bad})

	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestList_PassesFilterThrough(t *testing.T) {
	start := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	repo := &fakeBookingRepo{booking: confirmedBooking(start)}
	svc := newTestService(repo, start)

	status := "confirmed"
	resp, err := svc.List(context.Background(), &models.ListBookingsRequest{
		Status:          &status,
		IncludeInactive: true,
	})

	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	require.NotNil(t, repo.filterRequested.Status)
	assert.Equal(t, domain.StatusConfirmed, *repo.filterRequested.Status)
	assert.True(t, repo.filterRequested.IncludeInactive)
}

func TestClearAll(t *testing.T) {
	repo := &fakeBookingRepo{}
	svc := newTestService(repo, time.Now())

	err := svc.ClearAll(context.Background())

	require.NoError(t, err)
	assert.True(t, repo.deleteAllCalled)
}
