package reschedule_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("reschedule_booking: booking not found")

	// ErrCannotReschedule возвращается, когда бронирование нельзя перенести
	// (отмененную или завершенную запись не переносят)
	ErrCannotReschedule = errors.New("reschedule_booking: booking cannot be rescheduled")

	// ErrSlotTaken возвращается, когда целевой слот занят другой подтвержденной записью
	ErrSlotTaken = errors.New("reschedule_booking: destination slot already taken")

	// ErrSameSlot возвращается при переносе на тот же самый слот
	ErrSameSlot = errors.New("reschedule_booking: destination slot equals current slot")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reschedule_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_booking: internal error")
)
