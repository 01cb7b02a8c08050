package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByPaymentReference(ctx context.Context, paymentReference string) (*domain.Booking, error)
	GetConfirmedAtSlot(ctx context.Context, date time.Time, startTime types.TimeString) ([]*domain.Booking, error)
}

// ReservationRepository интерфейс репозитория удержаний слотов
type ReservationRepository interface {
	DeleteByReference(ctx context.Context, reference string) error
}

// GatewayClient интерфейс клиента платежного шлюза
type GatewayClient interface {
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
