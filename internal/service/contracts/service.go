package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	consultationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/consultation"
	contractRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/contract"
	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
)

// Service сервис для работы с договорами
type Service struct {
	consultationRepo ConsultationRepository
	contractRepo     ContractRepository
	invoiceRepo      InvoiceRepository
	txManager        TransactionManager
	tokenGen         TokenGenerator
	timeProvider     TimeProvider

	signingWindow  time.Duration
	invoiceDueDays int

	logger Logger
}

// NewService создает новый экземпляр сервиса договоров
func NewService(
	consultationRepo ConsultationRepository,
	contractRepo ContractRepository,
	invoiceRepo InvoiceRepository,
	txManager TransactionManager,
	signingDays int,
	invoiceDueDays int,
	logger Logger,
) *Service {
	if signingDays <= 0 {
		signingDays = domain.DefaultContractSigningDays
	}
	if invoiceDueDays <= 0 {
		invoiceDueDays = domain.DefaultInvoiceDueDays
	}
	return &Service{
		consultationRepo: consultationRepo,
		contractRepo:     contractRepo,
		invoiceRepo:      invoiceRepo,
		txManager:        txManager,
		tokenGen:         &HexTokenGenerator{},
		timeProvider:     &RealTimeProvider{},
		signingWindow:    time.Duration(signingDays) * 24 * time.Hour,
		invoiceDueDays:   invoiceDueDays,
		logger:           logger,
	}
}

// Create создает договор по консультации с решением proceed
// По одной консультации может существовать только один договор
func (s *Service) Create(ctx context.Context, req *models.CreateContractRequest) (*models.ContractResponse, error) {
	s.logger.Info("Create: creating contract for consultation id=%d", req.ConsultationID)

	if err := validateCreateRequest(req); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	token, err := s.tokenGen.Generate()
	if err != nil {
		s.logger.Error("Create: failed to generate token: %v", err)
		return nil, fmt.Errorf("%w: Create - failed to generate token: %v", ErrInternal, err)
	}

	var result *models.ContractResponse

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		consultation, err := s.consultationRepo.GetByID(txCtx, req.ConsultationID)
		if err != nil {
			if errors.Is(err, consultationRepo.ErrConsultationNotFound) {
				s.logger.Warn("Create: consultation id=%d not found", req.ConsultationID)
				return ErrConsultationNotFound
			}
			s.logger.Error("Create: failed to get consultation id=%d: %v", req.ConsultationID, err)
			return fmt.Errorf("%w: Create - failed to get consultation: %v", ErrInternal, err)
		}

		if !consultation.CanProceedToContract() {
			s.logger.Warn("Create: consultation id=%d is not eligible, decision=%v",
				req.ConsultationID, consultation.AdminDecision)
			return ErrConsultationNotEligible
		}

		contract := &domain.Contract{
			ConsultationID: req.ConsultationID,
			Token:          token,
			ProjectCost:    req.ProjectCost,
			Terms: domain.ContractTerms{
				Deliverables:       req.Terms.Deliverables,
				UpfrontPercent:     req.Terms.UpfrontPercent,
				FinalPercent:       100 - req.Terms.UpfrontPercent,
				RevisionLimit:      req.Terms.RevisionLimit,
				CancellationPolicy: req.Terms.CancellationPolicy,
			},
			Status: domain.ContractPending,
		}

		created, err := s.contractRepo.Create(txCtx, contract)
		if err != nil {
			if errors.Is(err, contractRepo.ErrContractExists) {
				s.logger.Warn("Create: contract already exists for consultation id=%d", req.ConsultationID)
				return ErrContractExists
			}
			s.logger.Error("Create: failed to create contract: %v", err)
			return fmt.Errorf("%w: Create - failed to create contract: %v", ErrInternal, err)
		}

		if err := s.consultationRepo.SetContractID(txCtx, req.ConsultationID, created.ID); err != nil {
			s.logger.Error("Create: failed to link contract id=%d to consultation id=%d: %v",
				created.ID, req.ConsultationID, err)
			return fmt.Errorf("%w: Create - failed to link contract: %v", ErrInternal, err)
		}

		result = models.FromDomainContract(created, s.signingWindow)
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Create: contract id=%d created for consultation id=%d", result.ID, req.ConsultationID)
	return result, nil
}

// GetByToken получает договор по публичному токену.
// Истечение вычисляется лениво: если окно подписания прошло, договор
// помечается expired прямо при чтении и возвращается ErrContractExpired.
// Подписанный договор по токену тоже не выдается: токен потреблен
func (s *Service) GetByToken(ctx context.Context, token string) (*models.ContractResponse, error) {
	s.logger.Info("GetByToken: fetching contract")

	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	contract, err := s.contractRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, contractRepo.ErrContractNotFound) {
			s.logger.Warn("GetByToken: contract not found")
			return nil, ErrContractNotFound
		}
		s.logger.Error("GetByToken: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetByToken - repository error: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()

	if contract.IsExpiredAt(now, s.signingWindow) {
		if err := s.expireContract(ctx, contract.ID); err != nil {
			return nil, err
		}
		s.logger.Warn("GetByToken: contract id=%d expired lazily", contract.ID)
		return nil, ErrContractExpired
	}

	if contract.Status == domain.ContractExpired {
		return nil, ErrContractExpired
	}

	// Токен одноразовый: после подписания договор по нему не выдается
	if contract.Status == domain.ContractSigned {
		return nil, ErrAlreadySigned
	}

	return models.FromDomainContract(contract, s.signingWindow), nil
}

// Sign подписывает договор и выставляет счет предоплаты.
// Подписание и выставление счета атомарны: чтение с блокировкой строки
// сериализует двойное нажатие, второй запрос получает ErrAlreadySigned
func (s *Service) Sign(ctx context.Context, token string, req *models.SignContractRequest) (*models.SignContractResponse, error) {
	s.logger.Info("Sign: signing contract by %s", req.SignedByName)

	if err := validateSignRequest(token, req); err != nil {
		s.logger.Warn("Sign: validation failed: %v", err)
		return nil, err
	}

	now := s.timeProvider.Now()

	var result *models.SignContractResponse

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		contract, err := s.contractRepo.GetByToken(txCtx, token)
		if err != nil {
			if errors.Is(err, contractRepo.ErrContractNotFound) {
				s.logger.Warn("Sign: contract not found")
				return ErrContractNotFound
			}
			s.logger.Error("Sign: failed to get contract: %v", err)
			return fmt.Errorf("%w: Sign - failed to get contract: %v", ErrInternal, err)
		}

		// Ленивое истечение: просроченный договор подписать нельзя
		if contract.IsExpiredAt(now, s.signingWindow) {
			if err := s.contractRepo.MarkExpired(txCtx, contract.ID); err != nil &&
				!errors.Is(err, contractRepo.ErrStatusNotPending) {
				s.logger.Error("Sign: failed to mark contract id=%d expired: %v", contract.ID, err)
				return fmt.Errorf("%w: Sign - failed to mark expired: %v", ErrInternal, err)
			}
			s.logger.Warn("Sign: contract id=%d signing window expired", contract.ID)
			return ErrContractExpired
		}

		if contract.Status == domain.ContractExpired {
			return ErrContractExpired
		}
		if !contract.CanBeSigned() {
			s.logger.Warn("Sign: contract id=%d already signed", contract.ID)
			return ErrAlreadySigned
		}

		if err := s.contractRepo.MarkSigned(
			txCtx,
			contract.ID,
			now,
			strings.TrimSpace(req.SignedByName),
			req.SignatureData,
			req.SignatureType,
			req.SignerIP,
		); err != nil {
			if errors.Is(err, contractRepo.ErrStatusNotPending) {
				return ErrAlreadySigned
			}
			s.logger.Error("Sign: failed to mark contract id=%d signed: %v", contract.ID, err)
			return fmt.Errorf("%w: Sign - failed to mark signed: %v", ErrInternal, err)
		}

		// Выставляем счет предоплаты в том же переходе
		invoice, err := s.issueUpfrontInvoice(txCtx, contract, now)
		if err != nil {
			return err
		}

		signed, err := s.contractRepo.GetByID(txCtx, contract.ID)
		if err != nil {
			s.logger.Error("Sign: failed to re-read contract id=%d: %v", contract.ID, err)
			return fmt.Errorf("%w: Sign - failed to re-read contract: %v", ErrInternal, err)
		}

		result = &models.SignContractResponse{
			Contract: models.FromDomainContract(signed, s.signingWindow),
			Invoice:  models.FromDomainInvoiceSummary(invoice),
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Sign: contract id=%d signed, invoice issued", result.Contract.ID)
	return result, nil
}

// CheckExpired помечает просроченные pending-договоры как expired
// Операция идемпотентна: повторный запуск не находит новых договоров
func (s *Service) CheckExpired(ctx context.Context) (*models.CheckExpiredResponse, error) {
	now := s.timeProvider.Now()
	cutoff := now.Add(-s.signingWindow)

	s.logger.Info("CheckExpired: sweeping pending contracts created before %s", cutoff.Format(time.RFC3339))

	pending, err := s.contractRepo.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("CheckExpired: failed to list pending contracts: %v", err)
		return nil, fmt.Errorf("%w: CheckExpired - failed to list contracts: %v", ErrInternal, err)
	}

	expired := 0
	for _, contract := range pending {
		if err := s.contractRepo.MarkExpired(ctx, contract.ID); err != nil {
			// Договор успели подписать между выборкой и переходом
			if errors.Is(err, contractRepo.ErrStatusNotPending) {
				continue
			}
			s.logger.Error("CheckExpired: failed to mark contract id=%d expired: %v", contract.ID, err)
			return nil, fmt.Errorf("%w: CheckExpired - failed to mark expired: %v", ErrInternal, err)
		}
		expired++
	}

	s.logger.Info("CheckExpired: %d contracts expired", expired)
	return &models.CheckExpiredResponse{Expired: expired}, nil
}

// issueUpfrontInvoice выставляет счет по подписанному договору
// При предоплате 100% выставляется единый счет на полную стоимость
func (s *Service) issueUpfrontInvoice(ctx context.Context, contract *domain.Contract, now time.Time) (*domain.Invoice, error) {
	policy := domain.NewPaymentSplitPolicy(contract.Terms.UpfrontPercent)

	invoiceType := domain.InvoiceDownpayment
	amount := policy.UpfrontAmount(contract.ProjectCost)
	if contract.Terms.UpfrontPercent >= domain.MaxUpfrontPercent {
		invoiceType = domain.InvoiceFull
		amount = contract.ProjectCost
	}

	due := now.AddDate(0, 0, s.invoiceDueDays)

	invoice := &domain.Invoice{
		ContractID:     contract.ID,
		ConsultationID: contract.ConsultationID,
		Number:         newInvoiceNumber(now),
		Type:           invoiceType,
		Amount:         amount,
		IssueDate:      now,
		DueDate:        due,
		ExpiryDate:     due,
		Status:         domain.InvoiceSent,
	}

	created, err := s.invoiceRepo.Create(ctx, invoice)
	if err != nil {
		s.logger.Error("issueUpfrontInvoice: failed to create invoice for contract id=%d: %v", contract.ID, err)
		return nil, fmt.Errorf("%w: failed to create invoice: %v", ErrInternal, err)
	}

	s.logger.Info("issueUpfrontInvoice: invoice %s (%s, %.2f) issued for contract id=%d",
		created.Number, created.Type, created.Amount, contract.ID)
	return created, nil
}

// newInvoiceNumber генерирует уникальный номер счета
func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("2006"), strings.ToUpper(uuid.NewString()[:8]))
}

// validateCreateRequest валидирует запрос на создание договора
func validateCreateRequest(req *models.CreateContractRequest) error {
	if req.ConsultationID <= 0 {
		return fmt.Errorf("%w: consultationId must be positive", ErrInvalidInput)
	}
	if req.ProjectCost <= 0 {
		return fmt.Errorf("%w: projectCost must be positive", ErrInvalidInput)
	}
	if req.Terms.UpfrontPercent < domain.MinUpfrontPercent || req.Terms.UpfrontPercent > domain.MaxUpfrontPercent {
		return fmt.Errorf("%w: upfrontPercent must be between %d and %d",
			ErrInvalidInput, domain.MinUpfrontPercent, domain.MaxUpfrontPercent)
	}
	if len(req.Terms.Deliverables) == 0 {
		return fmt.Errorf("%w: terms.deliverables is required", ErrInvalidInput)
	}
	if req.Terms.RevisionLimit < 0 {
		return fmt.Errorf("%w: revisionLimit must not be negative", ErrInvalidInput)
	}
	return nil
}

// validateSignRequest валидирует запрос на подписание
func validateSignRequest(token string, req *models.SignContractRequest) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SignedByName) == "" {
		return fmt.Errorf("%w: signedByName is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SignatureData) == "" {
		return fmt.Errorf("%w: signatureData is required", ErrInvalidInput)
	}
	if req.SignatureType != "typed" && req.SignatureType != "drawn" {
		return fmt.Errorf("%w: signatureType must be typed or drawn", ErrInvalidInput)
	}
	return nil
}

// expireContract помечает договор просроченным вне транзакции подписания
func (s *Service) expireContract(ctx context.Context, id int64) error {
	if err := s.contractRepo.MarkExpired(ctx, id); err != nil {
		// Конкурентное подписание или параллельный sweep — не ошибка
		if errors.Is(err, contractRepo.ErrStatusNotPending) {
			return nil
		}
		s.logger.Error("expireContract: failed to mark contract id=%d expired: %v", id, err)
		return fmt.Errorf("%w: failed to mark contract expired: %v", ErrInternal, err)
	}
	return nil
}
