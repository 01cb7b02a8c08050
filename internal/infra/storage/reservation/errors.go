package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда удержание слота не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrSlotAlreadyReserved возвращается при нарушении уникальности слота
	ErrSlotAlreadyReserved = errors.New("reservation.repository: slot already reserved")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
