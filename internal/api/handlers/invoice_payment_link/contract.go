package invoice_payment_link

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

type InvoiceService interface {
	PaymentLink(ctx context.Context, id int64, amountOverride *float64) (*models.PaymentLinkResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
