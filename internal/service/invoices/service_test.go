package invoices

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	contractRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/contract"
	invoiceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/invoice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
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

type fakeInvoiceRepo struct {
	invoice    *domain.Invoice
	byContract []*domain.Invoice
	sumPaid    float64
	expirable  []*domain.Invoice

	created    *domain.Invoice
	paidID     int64
	paidRef    string
	expiredIDs []int64
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	created := *inv
	created.ID = 11
	f.created = &created
	return &created, nil
}

func (f *fakeInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if f.invoice == nil {
		return nil, invoiceRepo.ErrInvoiceNotFound
	}
	inv := *f.invoice
	return &inv, nil
}

func (f *fakeInvoiceRepo) GetByContractID(ctx context.Context, contractID int64) ([]*domain.Invoice, error) {
	return f.byContract, nil
}

func (f *fakeInvoiceRepo) SumPaidByContract(ctx context.Context, contractID int64) (float64, error) {
	return f.sumPaid, nil
}

func (f *fakeInvoiceRepo) MarkPaid(ctx context.Context, id int64, paymentReference string, paidAt time.Time) error {
	f.paidID = id
	f.paidRef = paymentReference
	return nil
}

func (f *fakeInvoiceRepo) MarkExpired(ctx context.Context, id int64) error {
	f.expiredIDs = append(f.expiredIDs, id)
	return nil
}

func (f *fakeInvoiceRepo) ListExpirable(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for _, inv := range f.expirable {
		if inv.Status == domain.InvoiceSent && now.After(inv.ExpiryDate) {
			out = append(out, inv)
		}
	}
	return out, nil
}

type fakeContractRepo struct {
	contract *domain.Contract
}

func (f *fakeContractRepo) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	if f.contract == nil {
		return nil, contractRepo.ErrContractNotFound
	}
	return f.contract, nil
}

type fakeGateway struct {
	tx          *paymentgateway.Transaction
	verifyErr   error
	checkout    *paymentgateway.Checkout
	checkoutErr error

	checkoutReq *paymentgateway.CheckoutRequest
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*paymentgateway.Transaction, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.tx, nil
}

func (f *fakeGateway) CreateCheckout(ctx context.Context, req *paymentgateway.CheckoutRequest) (*paymentgateway.Checkout, error) {
	f.checkoutReq = req
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.checkout, nil
}

func signedContract() *domain.Contract {
	return &domain.Contract{
		ID:             3,
		ConsultationID: 5,
		ProjectCost:    100000,
		Terms: domain.ContractTerms{
			UpfrontPercent: 80,
			FinalPercent:   20,
		},
		Status: domain.ContractSigned,
	}
}

func sentInvoice(now time.Time) *domain.Invoice {
	return &domain.Invoice{
		ID:             11,
		ContractID:     3,
		ConsultationID: 5,
		Number:         "INV-2025-AAAA1111",
		Type:           domain.InvoiceDownpayment,
		Amount:         80000,
		IssueDate:      now.AddDate(0, 0, -1),
		DueDate:        now.AddDate(0, 0, 6),
		ExpiryDate:     now.AddDate(0, 0, 6),
		Status:         domain.InvoiceSent,
	}
}

func newTestService(invoices *fakeInvoiceRepo, contracts *fakeContractRepo, gw *fakeGateway, now time.Time) *Service {
	svc := NewService(invoices, contracts, gw, fakeTxManager{}, 7, "https://studio.example.com/callback", nopLogger{})
	svc.timeProvider = fixedTime{now: now}
	return svc
}

func TestCreate_FinalInvoiceCoversRemainder(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{sumPaid: 80000}
	svc := newTestService(invoices, &fakeContractRepo{contract: signedContract()}, &fakeGateway{}, now)

	resp, err := svc.Create(context.Background(), &models.CreateInvoiceRequest{ContractID: 3, Type: "final"})

	require.NoError(t, err)
	assert.Equal(t, 20000.0, resp.Amount)
	assert.Equal(t, string(domain.InvoiceFinal), resp.Type)
	assert.True(t, strings.HasPrefix(resp.Number, "INV-2025-"), "number=%s", resp.Number)
	assert.Equal(t, now.AddDate(0, 0, 7), invoices.created.DueDate)
}

func TestCreate_DownpaymentUsesContractSplit(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{}
	svc := newTestService(invoices, &fakeContractRepo{contract: signedContract()}, &fakeGateway{}, now)

	resp, err := svc.Create(context.Background(), &models.CreateInvoiceRequest{ContractID: 3, Type: "downpayment"})

	require.NoError(t, err)
	assert.Equal(t, 80000.0, resp.Amount)
}

func TestCreate_FullyPaidContractYieldsZeroAmount(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{sumPaid: 100000}
	svc := newTestService(invoices, &fakeContractRepo{contract: signedContract()}, &fakeGateway{}, now)

	_, err := svc.Create(context.Background(), &models.CreateInvoiceRequest{ContractID: 3, Type: "final"})

	require.ErrorIs(t, err, ErrZeroAmount)
	assert.Nil(t, invoices.created)
}

func TestCreate_UnsignedContractRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	contract := signedContract()
	contract.Status = domain.ContractPending
	svc := newTestService(&fakeInvoiceRepo{}, &fakeContractRepo{contract: contract}, &fakeGateway{}, now)

	_, err := svc.Create(context.Background(), &models.CreateInvoiceRequest{ContractID: 3, Type: "downpayment"})

	require.ErrorIs(t, err, ErrContractNotSigned)
}

func TestCreate_UnknownTypeRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeInvoiceRepo{}, &fakeContractRepo{contract: signedContract()}, &fakeGateway{}, now)

	_, err := svc.Create(context.Background(), &models.CreateInvoiceRequest{ContractID: 3, Type: "partial"})

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarkPaid(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{invoice: sentInvoice(now)}
	gw := &fakeGateway{tx: &paymentgateway.Transaction{Reference: "pay-9", Status: "success"}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	resp, err := svc.MarkPaid(context.Background(), 11, &models.MarkPaidRequest{PaymentReference: "pay-9"})

	require.NoError(t, err)
	assert.Equal(t, string(domain.InvoicePaid), resp.Status)
	assert.Equal(t, int64(11), invoices.paidID)
	assert.Equal(t, "pay-9", invoices.paidRef)
}

func TestMarkPaid_AlreadyPaidIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	paid := sentInvoice(now)
	paid.Status = domain.InvoicePaid
	invoices := &fakeInvoiceRepo{invoice: paid}
	gw := &fakeGateway{tx: &paymentgateway.Transaction{Reference: "pay-9", Status: "success"}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	resp, err := svc.MarkPaid(context.Background(), 11, &models.MarkPaidRequest{PaymentReference: "pay-9"})

	require.NoError(t, err)
	assert.Equal(t, string(domain.InvoicePaid), resp.Status)
	assert.Zero(t, invoices.paidID, "absorbing state must not be rewritten")
}

func TestMarkPaid_ExpiredInvoiceRejected(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	overdue := sentInvoice(now)
	overdue.ExpiryDate = now.AddDate(0, 0, -1)
	invoices := &fakeInvoiceRepo{invoice: overdue}
	gw := &fakeGateway{tx: &paymentgateway.Transaction{Reference: "pay-9", Status: "success"}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	_, err := svc.MarkPaid(context.Background(), 11, &models.MarkPaidRequest{PaymentReference: "pay-9"})

	require.ErrorIs(t, err, ErrInvoiceExpired)
	assert.Contains(t, invoices.expiredIDs, int64(11), "expiry must be persisted")
	assert.Zero(t, invoices.paidID)
}

func TestMarkPaid_CancelledInvoiceRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	cancelled := sentInvoice(now)
	cancelled.Status = domain.InvoiceCancelled
	invoices := &fakeInvoiceRepo{invoice: cancelled}
	gw := &fakeGateway{tx: &paymentgateway.Transaction{Reference: "pay-9", Status: "success"}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	_, err := svc.MarkPaid(context.Background(), 11, &models.MarkPaidRequest{PaymentReference: "pay-9"})

	require.ErrorIs(t, err, ErrInvoiceNotPayable)
}

func TestMarkPaid_GatewayUnavailableLeavesInvoiceUntouched(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{invoice: sentInvoice(now)}
	gw := &fakeGateway{verifyErr: paymentgateway.ErrGatewayUnavailable}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	_, err := svc.MarkPaid(context.Background(), 11, &models.MarkPaidRequest{PaymentReference: "pay-9"})

	require.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Zero(t, invoices.paidID)
	assert.Empty(t, invoices.expiredIDs)
}

func TestMarkPaid_FailedTransactionRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{invoice: sentInvoice(now)}
	gw := &fakeGateway{tx: &paymentgateway.Transaction{Reference: "pay-9", Status: "failed"}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	_, err := svc.MarkPaid(context.Background(), 11, &models.MarkPaidRequest{PaymentReference: "pay-9"})

	require.ErrorIs(t, err, ErrPaymentNotVerified)
	assert.Zero(t, invoices.paidID)
}

func TestPaymentLink(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{invoice: sentInvoice(now)}
	gw := &fakeGateway{checkout: &paymentgateway.Checkout{
		Reference:  "gw-1",
		PaymentURL: "https://gateway.example.com/pay/gw-1",
		Status:     "created",
	}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	resp, err := svc.PaymentLink(context.Background(), 11, nil)

	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example.com/pay/gw-1", resp.PaymentURL)
	assert.Equal(t, 80000.0, resp.Amount)

	require.NotNil(t, gw.checkoutReq)
	assert.Equal(t, "INV-2025-AAAA1111", gw.checkoutReq.Reference)
	assert.Equal(t, 80000.0, gw.checkoutReq.Amount)
	assert.Equal(t, "RUB", gw.checkoutReq.Currency)
	assert.Equal(t, "https://studio.example.com/callback", gw.checkoutReq.CallbackURL)
}

func TestPaymentLink_AmountOverride(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{invoice: sentInvoice(now)}
	gw := &fakeGateway{checkout: &paymentgateway.Checkout{
		Reference:  "gw-1",
		PaymentURL: "https://gateway.example.com/pay/gw-1",
		Status:     "created",
	}}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	override := 5000.0
	resp, err := svc.PaymentLink(context.Background(), 11, &override)

	require.NoError(t, err)
	assert.Equal(t, 5000.0, resp.Amount)
	require.NotNil(t, gw.checkoutReq)
	assert.Equal(t, 5000.0, gw.checkoutReq.Amount, "override must replace the invoice amount")
}

func TestPaymentLink_NonPositiveOverrideRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	invoices := &fakeInvoiceRepo{invoice: sentInvoice(now)}
	gw := &fakeGateway{}
	svc := newTestService(invoices, &fakeContractRepo{}, gw, now)

	for _, amount := range []float64{0, -100} {
		override := amount
		_, err := svc.PaymentLink(context.Background(), 11, &override)

		require.ErrorIs(t, err, ErrZeroAmount)
	}
	assert.Nil(t, gw.checkoutReq, "gateway must not be called with a non-positive amount")
}

func TestPaymentLink_ExpiredInvoice(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	overdue := sentInvoice(now)
	overdue.ExpiryDate = now.AddDate(0, 0, -1)
	invoices := &fakeInvoiceRepo{invoice: overdue}
	svc := newTestService(invoices, &fakeContractRepo{}, &fakeGateway{}, now)

	_, err := svc.PaymentLink(context.Background(), 11, nil)

	require.ErrorIs(t, err, ErrInvoiceExpired)
	assert.Contains(t, invoices.expiredIDs, int64(11))
}

func TestPaymentLink_PaidInvoiceNotPayable(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	paid := sentInvoice(now)
	paid.Status = domain.InvoicePaid
	svc := newTestService(&fakeInvoiceRepo{invoice: paid}, &fakeContractRepo{}, &fakeGateway{}, now)

	_, err := svc.PaymentLink(context.Background(), 11, nil)

	require.ErrorIs(t, err, ErrInvoiceNotPayable)
}

func TestGetByID_ExpiresLazily(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	overdue := sentInvoice(now)
	overdue.ExpiryDate = now.AddDate(0, 0, -1)
	invoices := &fakeInvoiceRepo{invoice: overdue}
	svc := newTestService(invoices, &fakeContractRepo{}, &fakeGateway{}, now)

	resp, err := svc.GetByID(context.Background(), 11)

	require.NoError(t, err)
	assert.Equal(t, string(domain.InvoiceExpired), resp.Status)
	assert.Contains(t, invoices.expiredIDs, int64(11))
}

func TestCheckExpired_SweepsSentInvoices(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	first := sentInvoice(now)
	first.ExpiryDate = now.AddDate(0, 0, -1)
	second := sentInvoice(now)
	second.ID = 12
	second.ExpiryDate = now.AddDate(0, 0, -2)
	fresh := sentInvoice(now)
	fresh.ID = 13
	invoices := &fakeInvoiceRepo{expirable: []*domain.Invoice{first, second, fresh}}
	svc := newTestService(invoices, &fakeContractRepo{}, &fakeGateway{}, now)

	resp, err := svc.CheckExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Expired)
	assert.ElementsMatch(t, []int64{11, 12}, invoices.expiredIDs)
}

func TestPaidInvoiceWithPastExpiryStaysPaid(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	paid := sentInvoice(now)
	paid.Status = domain.InvoicePaid
	paid.ExpiryDate = now.AddDate(0, 0, -3)
	invoices := &fakeInvoiceRepo{invoice: paid, expirable: []*domain.Invoice{paid}}
	svc := newTestService(invoices, &fakeContractRepo{}, &fakeGateway{}, now)

	sweep, err := svc.CheckExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sweep.Expired)
	assert.Empty(t, invoices.expiredIDs, "paid is absorbing, the sweep must not touch it")

	resp, err := svc.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, string(domain.InvoicePaid), resp.Status)
	assert.Empty(t, invoices.expiredIDs)
}
