package consultations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	consultationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/consultation"
	"github.com/m04kA/SMC-AppointmentService/internal/service/consultations/models"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeConsultationRepo struct {
	consultation *domain.Consultation
	decisionErr  error

	created         *domain.Consultation
	decidedID       int64
	decidedDecision domain.AdminDecision
	decidedStatus   domain.ConsultationStatus
}

func (f *fakeConsultationRepo) Create(ctx context.Context, c *domain.Consultation) (*domain.Consultation, error) {
	created := *c
	created.ID = 5
	f.created = &created
	return &created, nil
}

func (f *fakeConsultationRepo) GetByID(ctx context.Context, id int64) (*domain.Consultation, error) {
	if f.consultation == nil {
		return nil, consultationRepo.ErrConsultationNotFound
	}
	return f.consultation, nil
}

func (f *fakeConsultationRepo) RecordDecision(ctx context.Context, id int64, decision domain.AdminDecision, status domain.ConsultationStatus, decidedAt time.Time, notes *string) error {
	if f.decisionErr != nil {
		return f.decisionErr
	}
	f.decidedID = id
	f.decidedDecision = decision
	f.decidedStatus = status
	return nil
}

func pendingConsultation() *domain.Consultation {
	return &domain.Consultation{
		ID:               5,
		ClientName:       "Анна Иванова",
		ClientEmail:      "anna@example.com",
		ClientPhone:      "+79990001122",
		ConsultationDate: time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
		Status:           domain.ConsultationPending,
	}
}

func newTestService(repo *fakeConsultationRepo) *Service {
	svc := NewService(repo, nopLogger{})
	svc.timeProvider = fixedTime{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	return svc
}

func TestCreate(t *testing.T) {
	repo := &fakeConsultationRepo{}
	svc := newTestService(repo)

	resp, err := svc.Create(context.Background(), &models.CreateConsultationRequest{
		ClientName:       "  Анна Иванова ",
		ClientEmail:      "anna@example.com",
		ClientPhone:      "+79990001122",
		ConsultationDate: time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, string(domain.ConsultationPending), resp.Status)
	assert.Equal(t, "Анна Иванова", repo.created.ClientName, "client name must be trimmed")
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc := newTestService(&fakeConsultationRepo{})

	longBrief := string(make([]byte, domain.MaxProjectBriefLength+1))

	tests := []struct {
		name   string
		mutate func(r *models.CreateConsultationRequest)
	}{
		{"missing name", func(r *models.CreateConsultationRequest) { r.ClientName = "" }},
		{"missing email", func(r *models.CreateConsultationRequest) { r.ClientEmail = " " }},
		{"missing date", func(r *models.CreateConsultationRequest) { r.ConsultationDate = time.Time{} }},
		{"brief too long", func(r *models.CreateConsultationRequest) { r.ProjectBrief = &longBrief }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.CreateConsultationRequest{
				ClientName:       "Анна",
				ClientEmail:      "anna@example.com",
				ClientPhone:      "+79990001122",
				ConsultationDate: time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
			}
			tt.mutate(req)

			_, err := svc.Create(context.Background(), req)

			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRecordDecision_Proceed(t *testing.T) {
	decision := domain.DecisionProceed
	decided := pendingConsultation()
	decided.Status = domain.ConsultationCompleted
	decided.AdminDecision = &decision

	repo := &fakeConsultationRepo{consultation: decided}
	svc := newTestService(repo)

	resp, err := svc.RecordDecision(context.Background(), 5, &models.RecordDecisionRequest{Decision: "proceed"})

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionProceed, repo.decidedDecision)
	assert.Equal(t, domain.ConsultationCompleted, repo.decidedStatus)
	assert.Equal(t, string(domain.ConsultationCompleted), resp.Status)
}

func TestRecordDecision_DeclineSetsDeclinedStatus(t *testing.T) {
	repo := &fakeConsultationRepo{consultation: pendingConsultation()}
	svc := newTestService(repo)

	_, err := svc.RecordDecision(context.Background(), 5, &models.RecordDecisionRequest{Decision: "decline"})

	require.NoError(t, err)
	assert.Equal(t, domain.ConsultationDeclined, repo.decidedStatus)
}

func TestRecordDecision_OneShot(t *testing.T) {
	repo := &fakeConsultationRepo{
		consultation: pendingConsultation(),
		decisionErr:  consultationRepo.ErrAlreadyDecided,
	}
	svc := newTestService(repo)

	_, err := svc.RecordDecision(context.Background(), 5, &models.RecordDecisionRequest{Decision: "proceed"})

	require.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestRecordDecision_InvalidDecision(t *testing.T) {
	svc := newTestService(&fakeConsultationRepo{consultation: pendingConsultation()})

	_, err := svc.RecordDecision(context.Background(), 5, &models.RecordDecisionRequest{Decision: "maybe"})

	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&fakeConsultationRepo{})

	_, err := svc.GetByID(context.Background(), 99)

	require.ErrorIs(t, err, ErrConsultationNotFound)
}
