package sign_contract

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
)

type ContractService interface {
	Sign(ctx context.Context, token string, req *models.SignContractRequest) (*models.SignContractResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
