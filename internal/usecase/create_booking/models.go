package create_booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на создание бронирования
// Приходит из обработчика платежного webhook'а, не напрямую от клиента
type Request struct {
	Reference        string           // Ссылка бронирования (bookingReference удержания)
	PaymentReference string           // Ссылка транзакции в платежном шлюзе
	ClientName       string           // Имя клиента
	ClientEmail      string           // Email клиента
	ClientPhone      string           // Телефон клиента
	Date             time.Time        // Дата записи (без времени)
	StartTime        types.TimeString // Время начала слота (например, "10:00")
	ServiceID        int64            // ID услуги
	ServiceName      string           // Название услуги
	OriginalPrice    float64          // Цена до скидки
	Discount         float64          // Скидка
	FinalPrice       float64          // Итоговая цена
	Deposit          float64          // Внесенный депозит
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID          int64            // ID созданного бронирования
	Reference   string           // Ссылка бронирования
	BookingDate time.Time        // Дата записи
	StartTime   types.TimeString // Время начала
	Status      string           // Статус бронирования
	CreatedAt   time.Time        // Время создания
}
