package consultations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	consultationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/consultation"
	"github.com/m04kA/SMC-AppointmentService/internal/service/consultations/models"
)

// Service сервис для работы с консультациями
type Service struct {
	consultationRepo ConsultationRepository
	timeProvider     TimeProvider
	logger           Logger
}

// NewService создает новый экземпляр сервиса консультаций
func NewService(consultationRepo ConsultationRepository, logger Logger) *Service {
	return &Service{
		consultationRepo: consultationRepo,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Create записывает клиента на консультацию по индивидуальному проекту
func (s *Service) Create(ctx context.Context, req *models.CreateConsultationRequest) (*models.ConsultationResponse, error) {
	s.logger.Info("Create: creating consultation for %s on %s",
		req.ClientEmail, req.ConsultationDate.Format(domain.DateFormat))

	if err := validateCreateRequest(req); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	consultation := &domain.Consultation{
		ClientName:       strings.TrimSpace(req.ClientName),
		ClientEmail:      strings.TrimSpace(req.ClientEmail),
		ClientPhone:      strings.TrimSpace(req.ClientPhone),
		ConsultationDate: req.ConsultationDate,
		ProjectBrief:     req.ProjectBrief,
		Status:           domain.ConsultationPending,
	}

	created, err := s.consultationRepo.Create(ctx, consultation)
	if err != nil {
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: consultation id=%d created", created.ID)
	return models.FromDomainConsultation(created), nil
}

// GetByID получает консультацию по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.ConsultationResponse, error) {
	s.logger.Info("GetByID: fetching consultation id=%d", id)

	consultation, err := s.consultationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, consultationRepo.ErrConsultationNotFound) {
			s.logger.Warn("GetByID: consultation id=%d not found", id)
			return nil, ErrConsultationNotFound
		}
		s.logger.Error("GetByID: repository error for consultation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainConsultation(consultation), nil
}

// RecordDecision записывает решение по итогам консультации.
// Решение однократно: повторная попытка возвращает ErrAlreadyDecided,
// записанное решение не меняется
func (s *Service) RecordDecision(ctx context.Context, id int64, req *models.RecordDecisionRequest) (*models.ConsultationResponse, error) {
	s.logger.Info("RecordDecision: consultation id=%d, decision=%s", id, req.Decision)

	decision, err := models.ToDomainDecision(req.Decision)
	if err != nil {
		s.logger.Warn("RecordDecision: invalid decision=%s for consultation id=%d", req.Decision, id)
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecision, req.Decision)
	}

	status := domain.ConsultationCompleted
	if decision == domain.DecisionDecline {
		status = domain.ConsultationDeclined
	}

	now := s.timeProvider.Now()

	err = s.consultationRepo.RecordDecision(ctx, id, decision, status, now, req.Notes)
	if err != nil {
		if errors.Is(err, consultationRepo.ErrConsultationNotFound) {
			s.logger.Warn("RecordDecision: consultation id=%d not found", id)
			return nil, ErrConsultationNotFound
		}
		if errors.Is(err, consultationRepo.ErrAlreadyDecided) {
			s.logger.Warn("RecordDecision: consultation id=%d already decided", id)
			return nil, ErrAlreadyDecided
		}
		s.logger.Error("RecordDecision: repository error for consultation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: RecordDecision - repository error: %v", ErrInternal, err)
	}

	consultation, err := s.consultationRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("RecordDecision: failed to re-read consultation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: RecordDecision - failed to re-read consultation: %v", ErrInternal, err)
	}

	s.logger.Info("RecordDecision: consultation id=%d decided, status=%s", id, consultation.Status)
	return models.FromDomainConsultation(consultation), nil
}

// validateCreateRequest валидирует запрос на создание консультации
func validateCreateRequest(req *models.CreateConsultationRequest) error {
	if strings.TrimSpace(req.ClientName) == "" {
		return fmt.Errorf("%w: clientName is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.ClientEmail) == "" {
		return fmt.Errorf("%w: clientEmail is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.ClientPhone) == "" {
		return fmt.Errorf("%w: clientPhone is required", ErrInvalidInput)
	}
	if req.ConsultationDate.IsZero() {
		return fmt.Errorf("%w: consultationDate is required", ErrInvalidInput)
	}
	if req.ProjectBrief != nil && len(*req.ProjectBrief) > domain.MaxProjectBriefLength {
		return fmt.Errorf("%w: projectBrief too long", ErrInvalidInput)
	}
	return nil
}
