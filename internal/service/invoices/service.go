package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	contractRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/contract"
	invoiceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/invoice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

// defaultCurrency валюта счетов
const defaultCurrency = "RUB"

// Service сервис для работы со счетами
type Service struct {
	invoiceRepo   InvoiceRepository
	contractRepo  ContractRepository
	gatewayClient PaymentGatewayClient
	txManager     TransactionManager
	timeProvider  TimeProvider

	invoiceDueDays int
	callbackURL    string

	logger Logger
}

// NewService создает новый экземпляр сервиса счетов
func NewService(
	invoiceRepo InvoiceRepository,
	contractRepo ContractRepository,
	gatewayClient PaymentGatewayClient,
	txManager TransactionManager,
	invoiceDueDays int,
	callbackURL string,
	logger Logger,
) *Service {
	if invoiceDueDays <= 0 {
		invoiceDueDays = domain.DefaultInvoiceDueDays
	}
	return &Service{
		invoiceRepo:    invoiceRepo,
		contractRepo:   contractRepo,
		gatewayClient:  gatewayClient,
		txManager:      txManager,
		timeProvider:   &RealTimeProvider{},
		invoiceDueDays: invoiceDueDays,
		callbackURL:    callbackURL,
		logger:         logger,
	}
}

// Create выставляет счет по подписанному договору.
// Сумма определяется типом счета: full — полная стоимость проекта,
// downpayment — доля предоплаты из условий договора, final — остаток
// после уже оплаченных счетов. Счет на нулевую сумму не выставляется
func (s *Service) Create(ctx context.Context, req *models.CreateInvoiceRequest) (*models.InvoiceResponse, error) {
	s.logger.Info("Create: issuing %s invoice for contract id=%d", req.Type, req.ContractID)

	if req.ContractID <= 0 {
		return nil, fmt.Errorf("%w: contractId must be positive", ErrInvalidInput)
	}
	invoiceType, err := models.ToDomainInvoiceType(req.Type)
	if err != nil {
		s.logger.Warn("Create: invalid invoice type=%s", req.Type)
		return nil, fmt.Errorf("%w: type must be full, downpayment or final", ErrInvalidInput)
	}

	now := s.timeProvider.Now()

	var result *models.InvoiceResponse

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		contract, err := s.contractRepo.GetByID(txCtx, req.ContractID)
		if err != nil {
			if errors.Is(err, contractRepo.ErrContractNotFound) {
				s.logger.Warn("Create: contract id=%d not found", req.ContractID)
				return ErrContractNotFound
			}
			s.logger.Error("Create: failed to get contract id=%d: %v", req.ContractID, err)
			return fmt.Errorf("%w: Create - failed to get contract: %v", ErrInternal, err)
		}

		if contract.Status != domain.ContractSigned {
			s.logger.Warn("Create: contract id=%d is not signed, status=%s", contract.ID, contract.Status)
			return ErrContractNotSigned
		}

		amount, err := s.resolveAmount(txCtx, contract, invoiceType)
		if err != nil {
			return err
		}
		if amount <= 0 {
			s.logger.Warn("Create: zero amount for %s invoice, contract id=%d fully paid", invoiceType, contract.ID)
			return ErrZeroAmount
		}

		due := now.AddDate(0, 0, s.invoiceDueDays)

		created, err := s.invoiceRepo.Create(txCtx, &domain.Invoice{
			ContractID:     contract.ID,
			ConsultationID: contract.ConsultationID,
			Number:         newInvoiceNumber(now),
			Type:           invoiceType,
			Amount:         amount,
			IssueDate:      now,
			DueDate:        due,
			ExpiryDate:     due,
			Status:         domain.InvoiceSent,
		})
		if err != nil {
			s.logger.Error("Create: failed to create invoice: %v", err)
			return fmt.Errorf("%w: Create - failed to create invoice: %v", ErrInternal, err)
		}

		result = models.FromDomainInvoice(created)
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Create: invoice %s (%.2f) issued for contract id=%d", result.Number, result.Amount, req.ContractID)
	return result, nil
}

// GetByID получает счет по ID.
// Истечение вычисляется лениво: просроченный sent-счет помечается
// expired прямо при чтении
func (s *Service) GetByID(ctx context.Context, id int64) (*models.InvoiceResponse, error) {
	s.logger.Info("GetByID: fetching invoice id=%d", id)

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			s.logger.Warn("GetByID: invoice id=%d not found", id)
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("GetByID: repository error for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()

	if invoice.IsExpiredAt(now) {
		if err := s.expireInvoice(ctx, invoice.ID); err != nil {
			return nil, err
		}
		invoice.Status = domain.InvoiceExpired
		s.logger.Info("GetByID: invoice id=%d expired lazily", invoice.ID)
	}

	return models.FromDomainInvoice(invoice), nil
}

// ListByContract получает все счета по договору
func (s *Service) ListByContract(ctx context.Context, contractID int64) (*models.InvoiceListResponse, error) {
	s.logger.Info("ListByContract: fetching invoices for contract id=%d", contractID)

	invoices, err := s.invoiceRepo.GetByContractID(ctx, contractID)
	if err != nil {
		s.logger.Error("ListByContract: repository error for contract id=%d: %v", contractID, err)
		return nil, fmt.Errorf("%w: ListByContract - repository error: %v", ErrInternal, err)
	}

	// Просроченность показываем по состоянию на момент чтения,
	// персистентный переход выполняют GetByID, MarkPaid и sweep
	now := s.timeProvider.Now()
	for _, inv := range invoices {
		if inv.IsExpiredAt(now) {
			inv.Status = domain.InvoiceExpired
		}
	}

	return models.FromDomainInvoiceList(invoices), nil
}

// MarkPaid отмечает счет оплаченным после проверки транзакции в шлюзе.
// Повторная отметка уже оплаченного счета идемпотентна. Просроченный
// счет оплатить нельзя: он помечается expired и возвращается ошибка.
// При недоступности шлюза состояние счета не меняется
func (s *Service) MarkPaid(ctx context.Context, id int64, req *models.MarkPaidRequest) (*models.InvoiceResponse, error) {
	s.logger.Info("MarkPaid: invoice id=%d, payment reference=%s", id, req.PaymentReference)

	if strings.TrimSpace(req.PaymentReference) == "" {
		return nil, fmt.Errorf("%w: paymentReference is required", ErrInvalidInput)
	}

	// Проверяем транзакцию до изменения состояния: недоступность шлюза
	// оставляет счет как был, запрос можно повторить
	tx, err := s.gatewayClient.VerifyTransaction(ctx, req.PaymentReference)
	if err != nil {
		if paymentgateway.IsRetryable(err) {
			s.logger.Warn("MarkPaid: gateway unavailable for reference=%s: %v", req.PaymentReference, err)
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		s.logger.Warn("MarkPaid: transaction verification failed for reference=%s: %v", req.PaymentReference, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
	}
	if !tx.IsSuccessful() {
		s.logger.Warn("MarkPaid: transaction reference=%s is not successful, status=%s",
			req.PaymentReference, tx.Status)
		return nil, ErrPaymentNotVerified
	}

	now := s.timeProvider.Now()

	var result *models.InvoiceResponse

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
				s.logger.Warn("MarkPaid: invoice id=%d not found", id)
				return ErrInvoiceNotFound
			}
			s.logger.Error("MarkPaid: repository error for invoice id=%d: %v", id, err)
			return fmt.Errorf("%w: MarkPaid - repository error: %v", ErrInternal, err)
		}

		// Поглощающее состояние: повторный webhook по оплаченному счету
		// не меняет ничего
		if invoice.Status == domain.InvoicePaid {
			s.logger.Info("MarkPaid: invoice id=%d already paid", id)
			result = models.FromDomainInvoice(invoice)
			return nil
		}
		if invoice.Status == domain.InvoiceCancelled {
			return ErrInvoiceNotPayable
		}

		if invoice.IsExpiredAt(now) || invoice.Status == domain.InvoiceExpired {
			if err := s.expireInvoice(txCtx, invoice.ID); err != nil {
				return err
			}
			s.logger.Warn("MarkPaid: invoice id=%d has expired", id)
			return ErrInvoiceExpired
		}

		if err := s.invoiceRepo.MarkPaid(txCtx, invoice.ID, req.PaymentReference, now); err != nil {
			if errors.Is(err, invoiceRepo.ErrInvalidTransition) {
				return ErrInvoiceNotPayable
			}
			s.logger.Error("MarkPaid: failed to mark invoice id=%d paid: %v", id, err)
			return fmt.Errorf("%w: MarkPaid - failed to mark paid: %v", ErrInternal, err)
		}

		invoice.Status = domain.InvoicePaid
		invoice.PaymentReference = &req.PaymentReference
		invoice.PaidAt = &now
		result = models.FromDomainInvoice(invoice)
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("MarkPaid: invoice id=%d paid", id)
	return result, nil
}

// PaymentLink создает платежную ссылку шлюза для счета.
// amountOverride позволяет выставить частичную оплату; сумма всегда
// проверяется на положительность до обращения к шлюзу. Ссылка не
// создается для просроченных, оплаченных и отмененных счетов
func (s *Service) PaymentLink(ctx context.Context, id int64, amountOverride *float64) (*models.PaymentLinkResponse, error) {
	s.logger.Info("PaymentLink: creating payment link for invoice id=%d", id)

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			s.logger.Warn("PaymentLink: invoice id=%d not found", id)
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("PaymentLink: repository error for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: PaymentLink - repository error: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()

	if invoice.IsExpiredAt(now) || invoice.Status == domain.InvoiceExpired {
		if err := s.expireInvoice(ctx, invoice.ID); err != nil {
			return nil, err
		}
		s.logger.Warn("PaymentLink: invoice id=%d has expired", id)
		return nil, ErrInvoiceExpired
	}
	if !invoice.CanBePaid() {
		s.logger.Warn("PaymentLink: invoice id=%d is not payable, status=%s", id, invoice.Status)
		return nil, ErrInvoiceNotPayable
	}

	amount := invoice.Amount
	if amountOverride != nil {
		amount = *amountOverride
	}
	if amount <= 0 {
		s.logger.Warn("PaymentLink: non-positive amount %.2f for invoice id=%d", amount, id)
		return nil, ErrZeroAmount
	}

	checkout, err := s.gatewayClient.CreateCheckout(ctx, &paymentgateway.CheckoutRequest{
		Reference:   invoice.Number,
		Amount:      amount,
		Currency:    defaultCurrency,
		Description: fmt.Sprintf("Оплата счета %s", invoice.Number),
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		if paymentgateway.IsRetryable(err) {
			s.logger.Warn("PaymentLink: gateway unavailable for invoice id=%d: %v", id, err)
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		s.logger.Error("PaymentLink: failed to create checkout for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: PaymentLink - failed to create checkout: %v", ErrInternal, err)
	}

	s.logger.Info("PaymentLink: checkout created for invoice id=%d, amount=%.2f", id, amount)
	return &models.PaymentLinkResponse{
		InvoiceID:  invoice.ID,
		Number:     invoice.Number,
		Amount:     amount,
		PaymentURL: checkout.PaymentURL,
	}, nil
}

// CheckExpired помечает просроченные sent-счета как expired
// Операция идемпотентна: оплаченные и отмененные счета не затрагиваются
func (s *Service) CheckExpired(ctx context.Context) (*models.CheckExpiredResponse, error) {
	now := s.timeProvider.Now()

	s.logger.Info("CheckExpired: sweeping sent invoices expired before %s", now.Format(time.RFC3339))

	expirable, err := s.invoiceRepo.ListExpirable(ctx, now)
	if err != nil {
		s.logger.Error("CheckExpired: failed to list expirable invoices: %v", err)
		return nil, fmt.Errorf("%w: CheckExpired - failed to list invoices: %v", ErrInternal, err)
	}

	expired := 0
	for _, invoice := range expirable {
		if err := s.invoiceRepo.MarkExpired(ctx, invoice.ID); err != nil {
			// Счет успели оплатить между выборкой и переходом
			if errors.Is(err, invoiceRepo.ErrInvalidTransition) {
				continue
			}
			s.logger.Error("CheckExpired: failed to mark invoice id=%d expired: %v", invoice.ID, err)
			return nil, fmt.Errorf("%w: CheckExpired - failed to mark expired: %v", ErrInternal, err)
		}
		expired++
	}

	s.logger.Info("CheckExpired: %d invoices expired", expired)
	return &models.CheckExpiredResponse{Expired: expired}, nil
}

// resolveAmount вычисляет сумму счета по типу
func (s *Service) resolveAmount(ctx context.Context, contract *domain.Contract, invoiceType domain.InvoiceType) (float64, error) {
	policy := domain.NewPaymentSplitPolicy(contract.Terms.UpfrontPercent)

	switch invoiceType {
	case domain.InvoiceFull:
		return contract.ProjectCost, nil
	case domain.InvoiceDownpayment:
		return policy.UpfrontAmount(contract.ProjectCost), nil
	case domain.InvoiceFinal:
		paid, err := s.invoiceRepo.SumPaidByContract(ctx, contract.ID)
		if err != nil {
			s.logger.Error("resolveAmount: failed to sum paid invoices for contract id=%d: %v", contract.ID, err)
			return 0, fmt.Errorf("%w: failed to sum paid invoices: %v", ErrInternal, err)
		}
		return policy.FinalAmount(contract.ProjectCost, paid), nil
	default:
		return 0, fmt.Errorf("%w: unknown invoice type", ErrInvalidInput)
	}
}

// expireInvoice помечает счет просроченным, терпимо к гонке с оплатой
func (s *Service) expireInvoice(ctx context.Context, id int64) error {
	if err := s.invoiceRepo.MarkExpired(ctx, id); err != nil {
		if errors.Is(err, invoiceRepo.ErrInvalidTransition) {
			return nil
		}
		s.logger.Error("expireInvoice: failed to mark invoice id=%d expired: %v", id, err)
		return fmt.Errorf("%w: failed to mark invoice expired: %v", ErrInternal, err)
	}
	return nil
}

// newInvoiceNumber генерирует уникальный номер счета
func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("2006"), strings.ToUpper(uuid.NewString()[:8]))
}
