package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingStatus статус бронирования
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// RefundStatus статус возврата средств
// Независим от статуса бронирования: отмененная запись может быть
// как с возвратом, так и без него
type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundDenied    RefundStatus = "denied"
)

// Booking подтвержденная запись клиента
// Создается только после подтверждения оплаты (webhook платежного шлюза);
// среди подтвержденных записей слот (дата + время) уникален
type Booking struct {
	ID        int64
	Reference string // ссылка бронирования, совпадает с bookingReference удержания слота

	ClientName  string
	ClientEmail string
	ClientPhone string

	BookingDate time.Time
	StartTime   types.TimeString
	ServiceID   int64
	ServiceName string

	OriginalPrice float64
	Discount      float64
	FinalPrice    float64
	Deposit       float64

	Status           BookingStatus
	PaymentReference *string

	CancellationReason *string
	CancelledAt        *time.Time
	CancelledBy        *string

	RefundStatus RefundStatus
	RefundAmount *float64
	RefundNotes  *string

	RescheduledAt *time.Time
	RescheduledBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanBeCancelled возвращает true, если бронирование можно отменить
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusConfirmed
}

// CanBeCompleted возвращает true, если бронирование можно завершить
func (b *Booking) CanBeCompleted() bool {
	return b.Status == StatusConfirmed
}

// CanBeRescheduled возвращает true, если бронирование можно перенести
func (b *Booking) CanBeRescheduled() bool {
	return b.Status == StatusConfirmed
}

// IsActive возвращает true, если запись занимает слот
func (b *Booking) IsActive() bool {
	return b.Status == StatusConfirmed
}

// StartsAt возвращает момент начала записи (дата + время слота)
func (b *Booking) StartsAt() (time.Time, error) {
	return b.StartTime.AtDate(b.BookingDate)
}

// RescheduleEntry запись истории переносов бронирования
// История упорядочена по времени переноса и никогда не редактируется
type RescheduleEntry struct {
	ID            int64
	BookingID     int64
	FromDate      time.Time
	FromStartTime types.TimeString
	ToDate        time.Time
	ToStartTime   types.TimeString
	RescheduledAt time.Time
	RescheduledBy string
	Notes         *string
}

// BookingsFilter фильтр для выборки бронирований
type BookingsFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *BookingStatus
	IncludeInactive bool // включать ли отмененные записи
}
