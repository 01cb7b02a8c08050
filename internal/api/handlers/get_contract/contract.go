package get_contract

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
)

type ContractService interface {
	GetByToken(ctx context.Context, token string) (*models.ContractResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
