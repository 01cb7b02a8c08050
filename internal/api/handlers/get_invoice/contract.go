package get_invoice

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

type InvoiceService interface {
	GetByID(ctx context.Context, id int64) (*models.InvoiceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
