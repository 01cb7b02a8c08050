package check_expired_contracts

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
)

type ContractService interface {
	CheckExpired(ctx context.Context) (*models.CheckExpiredResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
