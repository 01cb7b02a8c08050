package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// SlotReservation временное удержание слота (дата + время) до завершения оплаты
// Не более одного активного удержания на слот; повторный запрос с тем же
// bookingReference продлевает срок действия (идемпотентность)
type SlotReservation struct {
	ID               int64
	BookingReference string
	Date             time.Time
	StartTime        types.TimeString
	ReservedAt       time.Time
	ExpiresAt        time.Time
}

// IsExpiredAt возвращает true, если удержание истекло на момент now
// Ленивая проверка: вычисляется при каждом обращении, фонового таймера нет
func (r *SlotReservation) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsHeldBy возвращает true, если удержание принадлежит указанному bookingReference
func (r *SlotReservation) IsHeldBy(reference string) bool {
	return r.BookingReference == reference
}
