package create_booking

import "errors"

var (
	// ErrSlotTaken возвращается, когда слот уже занят подтвержденной записью
	ErrSlotTaken = errors.New("create_booking: slot already taken by confirmed booking")

	// ErrPaymentNotVerified возвращается, когда платеж не подтвержден шлюзом
	// Бронирование становится confirmed только после успешной оплаты
	ErrPaymentNotVerified = errors.New("create_booking: payment is not verified")

	// ErrGatewayUnavailable возвращается при недоступности платежного шлюза
	// Состояние не изменено, повтор webhook'а безопасен
	ErrGatewayUnavailable = errors.New("create_booking: payment gateway unavailable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
