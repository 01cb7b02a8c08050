package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Schedule рабочее расписание студии
// Собирается из конфигурации при старте сервиса
type Schedule struct {
	OpenTime       types.TimeString
	CloseTime      types.TimeString
	SlotDuration   int // минуты
	ClosedWeekdays map[time.Weekday]bool
}

// Request модель запроса доступных слотов
type Request struct {
	Date time.Time // дата, на которую запрашиваются слоты
}

// Slot один слот расписания с признаком доступности
type Slot struct {
	StartTime types.TimeString
	Available bool
}

// Response модель ответа со слотами на дату
type Response struct {
	Date  time.Time
	Slots []Slot
}
