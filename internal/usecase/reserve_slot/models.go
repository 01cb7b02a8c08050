package reserve_slot

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на удержание слота
type Request struct {
	Date             time.Time        // Дата слота (без времени)
	StartTime        types.TimeString // Время начала слота (например, "10:00")
	BookingReference string           // Ссылка оформляемого бронирования
}

// Response модель ответа с удержанным слотом
type Response struct {
	Reserved  bool      // Слот удержан
	ExpiresAt time.Time // Момент истечения удержания
}
