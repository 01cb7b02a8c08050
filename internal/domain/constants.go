package domain

// Значения по умолчанию для политик бронирования
// Могут быть переопределены в config.toml
const (
	DefaultReservationTTLMinutes = 15 // время жизни удержания слота до оплаты
	DefaultContractSigningDays   = 7  // окно подписания договора
	DefaultInvoiceDueDays        = 7  // окно оплаты счета
	DefaultUpfrontPercent        = 80 // доля предоплаты по договору
	DefaultRefundCutoffHours     = 24 // отмена позже этого срока до записи — без возврата
)

// Ограничения валидации
const (
	MinUpfrontPercent           = 1
	MaxUpfrontPercent           = 100
	MaxNotesLength              = 500
	MaxProjectBriefLength       = 2000
	MaxCancellationReasonLength = 500
	MaxClientNameLength         = 200
)

// Форматы даты и времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
