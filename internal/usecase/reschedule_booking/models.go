package reschedule_booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на перенос бронирования
type Request struct {
	BookingID     int64            // ID переносимого бронирования
	ToDate        time.Time        // Новая дата
	ToStartTime   types.TimeString // Новое время начала
	RescheduledBy string           // Кто переносит (admin / client)
	Notes         *string          // Комментарий к переносу (опционально)
}

// Response модель ответа с перенесенным бронированием
type Response struct {
	ID          int64            // ID бронирования
	BookingDate time.Time        // Новая дата
	StartTime   types.TimeString // Новое время
	Status      string           // Статус (остается confirmed)
}
