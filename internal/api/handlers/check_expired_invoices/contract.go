package check_expired_invoices

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

type InvoiceService interface {
	CheckExpired(ctx context.Context) (*models.CheckExpiredResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
