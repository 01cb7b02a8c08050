package paymentgateway

import "errors"

var (
	// ErrPaymentDeclined возвращается, когда шлюз отклонил платеж
	// Это бизнес-результат, а не сбой — не путать с ErrGatewayUnavailable
	ErrPaymentDeclined = errors.New("paymentgateway client: payment declined")

	// ErrTransactionNotFound возвращается, когда транзакция не найдена в шлюзе
	ErrTransactionNotFound = errors.New("paymentgateway client: transaction not found")

	// ErrGatewayUnavailable возвращается при таймауте или сбое шлюза
	// Состояние workflow при этом не меняется, повтор запроса безопасен
	ErrGatewayUnavailable = errors.New("paymentgateway client: gateway unavailable, retry is safe")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paymentgateway client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("paymentgateway client: invalid response")
)
