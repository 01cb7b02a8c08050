package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	consultationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/consultation"
	contractRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/contract"
	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
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

type fakeConsultationRepo struct {
	consultation     *domain.Consultation
	linkedContractID int64
}

func (f *fakeConsultationRepo) GetByID(ctx context.Context, id int64) (*domain.Consultation, error) {
	if f.consultation == nil {
		return nil, consultationRepo.ErrConsultationNotFound
	}
	return f.consultation, nil
}

func (f *fakeConsultationRepo) SetContractID(ctx context.Context, id int64, contractID int64) error {
	f.linkedContractID = contractID
	return nil
}

type fakeContractRepo struct {
	byToken   *domain.Contract
	createErr error
	pending   []*domain.Contract

	created    *domain.Contract
	signedID   int64
	signedName string
	expiredIDs []int64
}

func (f *fakeContractRepo) Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *c
	created.ID = 3
	f.created = &created
	return &created, nil
}

func (f *fakeContractRepo) GetByToken(ctx context.Context, token string) (*domain.Contract, error) {
	if f.byToken == nil {
		return nil, contractRepo.ErrContractNotFound
	}
	return f.byToken, nil
}

func (f *fakeContractRepo) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	if f.byToken == nil {
		return nil, contractRepo.ErrContractNotFound
	}
	signed := *f.byToken
	if f.signedID == id {
		signed.Status = domain.ContractSigned
	}
	return &signed, nil
}

func (f *fakeContractRepo) MarkSigned(ctx context.Context, id int64, signedAt time.Time, signedByName, signatureData, signatureType string, signerIP *string) error {
	f.signedID = id
	f.signedName = signedByName
	return nil
}

func (f *fakeContractRepo) MarkExpired(ctx context.Context, id int64) error {
	f.expiredIDs = append(f.expiredIDs, id)
	return nil
}

func (f *fakeContractRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Contract, error) {
	return f.pending, nil
}

type fakeInvoiceRepo struct {
	created *domain.Invoice
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	created := *inv
	created.ID = 11
	f.created = &created
	return &created, nil
}

func proceedConsultation() *domain.Consultation {
	decision := domain.DecisionProceed
	return &domain.Consultation{
		ID:            5,
		Status:        domain.ConsultationCompleted,
		AdminDecision: &decision,
	}
}

func pendingContract(createdAt time.Time) *domain.Contract {
	return &domain.Contract{
		ID:             3,
		ConsultationID: 5,
		Token:          "token-abc",
		ProjectCost:    100000,
		Terms: domain.ContractTerms{
			Deliverables:   []string{"дизайн-проект"},
			UpfrontPercent: 80,
			FinalPercent:   20,
		},
		Status:    domain.ContractPending,
		CreatedAt: createdAt,
	}
}

func createRequest() *models.CreateContractRequest {
	return &models.CreateContractRequest{
		ConsultationID: 5,
		ProjectCost:    100000,
		Terms: models.ContractTermsRequest{
			Deliverables:       []string{"дизайн-проект"},
			UpfrontPercent:     80,
			RevisionLimit:      2,
			CancellationPolicy: "возврат предоплаты за вычетом выполненных работ",
		},
	}
}

func signRequest() *models.SignContractRequest {
	return &models.SignContractRequest{
		SignedByName:  "Анна Иванова",
		SignatureData: "Anna Ivanova",
		SignatureType: "typed",
	}
}

func newTestService(cons *fakeConsultationRepo, contracts *fakeContractRepo, invoices *fakeInvoiceRepo, now time.Time) *Service {
	svc := NewService(cons, contracts, invoices, fakeTxManager{}, 7, 7, nopLogger{})
	svc.timeProvider = fixedTime{now: now}
	return svc
}

func TestCreate(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	cons := &fakeConsultationRepo{consultation: proceedConsultation()}
	contracts := &fakeContractRepo{}
	svc := newTestService(cons, contracts, &fakeInvoiceRepo{}, now)

	resp, err := svc.Create(context.Background(), createRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.ID)
	assert.Equal(t, string(domain.ContractPending), resp.Status)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 20, contracts.created.Terms.FinalPercent, "final percent is the complement of upfront")
	assert.Equal(t, int64(3), cons.linkedContractID)
}

func TestCreate_ConsultationWithoutProceedRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	cons := &fakeConsultationRepo{consultation: &domain.Consultation{ID: 5, Status: domain.ConsultationPending}}
	svc := newTestService(cons, &fakeContractRepo{}, &fakeInvoiceRepo{}, now)

	_, err := svc.Create(context.Background(), createRequest())

	require.ErrorIs(t, err, ErrConsultationNotEligible)
}

func TestCreate_SecondContractRejected(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	cons := &fakeConsultationRepo{consultation: proceedConsultation()}
	contracts := &fakeContractRepo{createErr: contractRepo.ErrContractExists}
	svc := newTestService(cons, contracts, &fakeInvoiceRepo{}, now)

	_, err := svc.Create(context.Background(), createRequest())

	require.ErrorIs(t, err, ErrContractExists)
}

func TestGetByToken_ExpiresLazily(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	contracts := &fakeContractRepo{byToken: pendingContract(now.AddDate(0, 0, -8))}
	svc := newTestService(&fakeConsultationRepo{}, contracts, &fakeInvoiceRepo{}, now)

	_, err := svc.GetByToken(context.Background(), "token-abc")

	require.ErrorIs(t, err, ErrContractExpired)
	assert.Contains(t, contracts.expiredIDs, int64(3), "expiry must be persisted on read")
}

func TestGetByToken_WithinWindow(t *testing.T) {
	now := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)
	contracts := &fakeContractRepo{byToken: pendingContract(now.AddDate(0, 0, -2))}
	svc := newTestService(&fakeConsultationRepo{}, contracts, &fakeInvoiceRepo{}, now)

	resp, err := svc.GetByToken(context.Background(), "token-abc")

	require.NoError(t, err)
	assert.Equal(t, string(domain.ContractPending), resp.Status)
	assert.Empty(t, contracts.expiredIDs)
}

func TestGetByToken_SignedContractConsumed(t *testing.T) {
	now := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)
	contract := pendingContract(now.AddDate(0, 0, -2))
	contract.Status = domain.ContractSigned
	contracts := &fakeContractRepo{byToken: contract}
	svc := newTestService(&fakeConsultationRepo{}, contracts, &fakeInvoiceRepo{}, now)

	_, err := svc.GetByToken(context.Background(), "token-abc")

	require.ErrorIs(t, err, ErrAlreadySigned, "signing consumes the token")
}

func TestSign_IssuesDownpaymentInvoice(t *testing.T) {
	now := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)
	contracts := &fakeContractRepo{byToken: pendingContract(now.AddDate(0, 0, -2))}
	invoices := &fakeInvoiceRepo{}
	svc := newTestService(&fakeConsultationRepo{}, contracts, invoices, now)

	resp, err := svc.Sign(context.Background(), "token-abc", signRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(3), contracts.signedID)
	assert.Equal(t, string(domain.ContractSigned), resp.Contract.Status)

	require.NotNil(t, invoices.created)
	assert.Equal(t, domain.InvoiceDownpayment, invoices.created.Type)
	assert.Equal(t, 80000.0, invoices.created.Amount)
	assert.Equal(t, domain.InvoiceSent, invoices.created.Status)
	assert.Equal(t, now.AddDate(0, 0, 7), invoices.created.DueDate)

	require.NotNil(t, resp.Invoice)
	assert.Equal(t, invoices.created.Number, resp.Invoice.Number)
}

func TestSign_FullUpfrontIssuesSingleInvoice(t *testing.T) {
	now := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)
	contract := pendingContract(now.AddDate(0, 0, -2))
	contract.Terms.UpfrontPercent = 100
	contract.Terms.FinalPercent = 0
	contracts := &fakeContractRepo{byToken: contract}
	invoices := &fakeInvoiceRepo{}
	svc := newTestService(&fakeConsultationRepo{}, contracts, invoices, now)

	_, err := svc.Sign(context.Background(), "token-abc", signRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceFull, invoices.created.Type)
	assert.Equal(t, 100000.0, invoices.created.Amount)
}

func TestSign_ExpiredWindowRejected(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	contracts := &fakeContractRepo{byToken: pendingContract(now.AddDate(0, 0, -8))}
	invoices := &fakeInvoiceRepo{}
	svc := newTestService(&fakeConsultationRepo{}, contracts, invoices, now)

	_, err := svc.Sign(context.Background(), "token-abc", signRequest())

	require.ErrorIs(t, err, ErrContractExpired)
	assert.Nil(t, invoices.created, "expired contract must not produce an invoice")
}

func TestSign_AlreadySigned(t *testing.T) {
	now := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)
	contract := pendingContract(now.AddDate(0, 0, -2))
	contract.Status = domain.ContractSigned
	contracts := &fakeContractRepo{byToken: contract}
	svc := newTestService(&fakeConsultationRepo{}, contracts, &fakeInvoiceRepo{}, now)

	_, err := svc.Sign(context.Background(), "token-abc", signRequest())

	require.ErrorIs(t, err, ErrAlreadySigned)
}

func TestSign_ValidationErrors(t *testing.T) {
	now := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeConsultationRepo{}, &fakeContractRepo{byToken: pendingContract(now)}, &fakeInvoiceRepo{}, now)

	tests := []struct {
		name   string
		mutate func(r *models.SignContractRequest)
	}{
		{"missing name", func(r *models.SignContractRequest) { r.SignedByName = " " }},
		{"missing signature", func(r *models.SignContractRequest) { r.SignatureData = "" }},
		{"unknown signature type", func(r *models.SignContractRequest) { r.SignatureType = "stamped" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signRequest()
			tt.mutate(req)

			_, err := svc.Sign(context.Background(), "token-abc", req)

			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCheckExpired_SweepsPendingContracts(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	contracts := &fakeContractRepo{
		pending: []*domain.Contract{
			pendingContract(now.AddDate(0, 0, -10)),
			{ID: 4, Status: domain.ContractPending, CreatedAt: now.AddDate(0, 0, -9)},
		},
	}
	svc := newTestService(&fakeConsultationRepo{}, contracts, &fakeInvoiceRepo{}, now)

	resp, err := svc.CheckExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Expired)
	assert.ElementsMatch(t, []int64{3, 4}, contracts.expiredIDs)
}

func TestHexTokenGenerator(t *testing.T) {
	gen := &HexTokenGenerator{}

	first, err := gen.Generate()
	require.NoError(t, err)
	second, err := gen.Generate()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
