package reserve_slot

import "errors"

var (
	// ErrSlotReserved возвращается, когда слот удерживает другой клиент
	// Это единственный механизм защиты слота до завершения оплаты
	ErrSlotReserved = errors.New("reserve_slot: slot is held by another checkout")

	// ErrSlotBooked возвращается, когда слот уже занят подтвержденной записью
	ErrSlotBooked = errors.New("reserve_slot: slot is already booked")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reserve_slot: invalid input data")

	// ErrInvalidDate возвращается, когда дата в прошлом
	ErrInvalidDate = errors.New("reserve_slot: invalid reservation date")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reserve_slot: internal error")
)
