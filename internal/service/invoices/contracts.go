package invoices

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
)

// InvoiceRepository интерфейс репозитория счетов
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByContractID(ctx context.Context, contractID int64) ([]*domain.Invoice, error)
	SumPaidByContract(ctx context.Context, contractID int64) (float64, error)
	MarkPaid(ctx context.Context, id int64, paymentReference string, paidAt time.Time) error
	MarkExpired(ctx context.Context, id int64) error
	ListExpirable(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
}

// ContractRepository интерфейс репозитория договоров
type ContractRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Contract, error)
}

// PaymentGatewayClient интерфейс клиента платежного шлюза
type PaymentGatewayClient interface {
	CreateCheckout(ctx context.Context, req *paymentgateway.CheckoutRequest) (*paymentgateway.Checkout, error)
	VerifyTransaction(ctx context.Context, reference string) (*paymentgateway.Transaction, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
