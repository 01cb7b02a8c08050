package create_consultation

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/consultations/models"
)

type ConsultationService interface {
	Create(ctx context.Context, req *models.CreateConsultationRequest) (*models.ConsultationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
