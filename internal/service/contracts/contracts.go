package contracts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ConsultationRepository интерфейс репозитория консультаций
type ConsultationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Consultation, error)
	SetContractID(ctx context.Context, id int64, contractID int64) error
}

// ContractRepository интерфейс репозитория договоров
type ContractRepository interface {
	Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error)
	GetByToken(ctx context.Context, token string) (*domain.Contract, error)
	GetByID(ctx context.Context, id int64) (*domain.Contract, error)
	MarkSigned(ctx context.Context, id int64, signedAt time.Time, signedByName, signatureData, signatureType string, signerIP *string) error
	MarkExpired(ctx context.Context, id int64) error
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Contract, error)
}

// InvoiceRepository интерфейс репозитория счетов
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// TokenGenerator интерфейс генерации публичных токенов договоров
type TokenGenerator interface {
	Generate() (string, error)
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
