package record_decision

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/consultations/models"
)

type ConsultationService interface {
	RecordDecision(ctx context.Context, id int64, req *models.RecordDecisionRequest) (*models.ConsultationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
