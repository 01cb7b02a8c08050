package list_contract_invoices

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

type InvoiceService interface {
	ListByContract(ctx context.Context, contractID int64) (*models.InvoiceListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
