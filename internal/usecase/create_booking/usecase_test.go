package create_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
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

type fakeBookingRepo struct {
	byPayment *domain.Booking
	confirmed []*domain.Booking
	createErr error
	created   *domain.Booking
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *b
	created.ID = 42
	created.CreatedAt = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	f.created = &created
	return &created, nil
}

func (f *fakeBookingRepo) GetByPaymentReference(ctx context.Context, paymentReference string) (*domain.Booking, error) {
	if f.byPayment == nil {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return f.byPayment, nil
}

func (f *fakeBookingRepo) GetConfirmedAtSlot(ctx context.Context, date time.Time, startTime types.TimeString) ([]*domain.Booking, error) {
	return f.confirmed, nil
}

type fakeReservationRepo struct {
	releasedRef string
}

func (f *fakeReservationRepo) DeleteByReference(ctx context.Context, reference string) error {
	f.releasedRef = reference
	return nil
}

type fakeGateway struct {
	tx  *paymentgateway.Transaction
	err error

	calls int
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*paymentgateway.Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func successfulTx() *paymentgateway.Transaction {
	return &paymentgateway.Transaction{Reference: "pay-1", Amount: 5000, Currency: "RUB", Status: "success"}
}

func testRequest() *Request {
	return &Request{
		Reference:        "ref-123",
		PaymentReference: "pay-1",
		ClientName:       "Анна Иванова",
		ClientEmail:      "anna@example.com",
		ClientPhone:      "+79990001122",
		Date:             time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		StartTime:        "10:00",
		ServiceID:        3,
		ServiceName:      "Фотосессия",
		OriginalPrice:    6000,
		Discount:         1000,
		FinalPrice:       5000,
		Deposit:          1500,
	}
}

func newTestUseCase(books *fakeBookingRepo, res *fakeReservationRepo, gw *fakeGateway) *UseCase {
	return NewUseCase(books, res, gw, fakeTxManager{}, nopLogger{})
}

func TestExecute_CreatesConfirmedBooking(t *testing.T) {
	books := &fakeBookingRepo{}
	res := &fakeReservationRepo{}
	gw := &fakeGateway{tx: successfulTx()}
	uc := newTestUseCase(books, res, gw)

	resp, err := uc.Execute(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	require.NotNil(t, books.created)
	assert.Equal(t, domain.StatusConfirmed, books.created.Status)
	require.NotNil(t, books.created.PaymentReference)
	assert.Equal(t, "pay-1", *books.created.PaymentReference)
	assert.Equal(t, "ref-123", res.releasedRef, "slot hold must be released inside the transaction")
}

func TestExecute_DuplicateWebhookIsIdempotent(t *testing.T) {
	existing := &domain.Booking{ID: 7, Reference: "ref-123", Status: domain.StatusConfirmed}
	books := &fakeBookingRepo{byPayment: existing}
	res := &fakeReservationRepo{}
	uc := newTestUseCase(books, res, &fakeGateway{tx: successfulTx()})

	resp, err := uc.Execute(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Nil(t, books.created, "duplicate webhook must not create a second booking")
}

func TestExecute_SlotTaken(t *testing.T) {
	books := &fakeBookingRepo{
		confirmed: []*domain.Booking{{ID: 5, Status: domain.StatusConfirmed}},
	}
	uc := newTestUseCase(books, &fakeReservationRepo{}, &fakeGateway{tx: successfulTx()})

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestExecute_CreateRaceMapsToSlotTaken(t *testing.T) {
	books := &fakeBookingRepo{createErr: bookingRepo.ErrSlotTaken}
	uc := newTestUseCase(books, &fakeReservationRepo{}, &fakeGateway{tx: successfulTx()})

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestExecute_PaymentNotSuccessful(t *testing.T) {
	gw := &fakeGateway{tx: &paymentgateway.Transaction{Reference: "pay-1", Status: "failed"}}
	books := &fakeBookingRepo{}
	uc := newTestUseCase(books, &fakeReservationRepo{}, gw)

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrPaymentNotVerified)
	assert.Nil(t, books.created)
}

func TestExecute_GatewayUnavailableLeavesStateUntouched(t *testing.T) {
	gw := &fakeGateway{err: paymentgateway.ErrGatewayUnavailable}
	books := &fakeBookingRepo{}
	res := &fakeReservationRepo{}
	uc := newTestUseCase(books, res, gw)

	_, err := uc.Execute(context.Background(), testRequest())

	require.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Nil(t, books.created)
	assert.Empty(t, res.releasedRef)
}

func TestExecute_ValidationErrors(t *testing.T) {
	uc := newTestUseCase(&fakeBookingRepo{}, &fakeReservationRepo{}, &fakeGateway{tx: successfulTx()})

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"missing reference", func(r *Request) { r.Reference = "" }},
		{"missing paymentReference", func(r *Request) { r.PaymentReference = "" }},
		{"missing clientName", func(r *Request) { r.ClientName = "" }},
		{"missing date", func(r *Request) { r.Date = time.Time{} }},
		{"bad startTime", func(r *Request) { r.StartTime = "99:99" }},
		{"negative deposit", func(r *Request) { r.Deposit = -1 }},
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
