package invoices

import "errors"

var (
	// ErrInvoiceNotFound возвращается, когда счет не найден
	ErrInvoiceNotFound = errors.New("invoices: invoice not found")

	// ErrContractNotFound возвращается, когда договор не найден
	ErrContractNotFound = errors.New("invoices: contract not found")

	// ErrContractNotSigned возвращается при выставлении счета по неподписанному договору
	ErrContractNotSigned = errors.New("invoices: contract is not signed")

	// ErrInvoiceExpired возвращается при операции над просроченным счетом
	ErrInvoiceExpired = errors.New("invoices: invoice has expired")

	// ErrInvoiceNotPayable возвращается, когда счет в поглощающем состоянии
	// (оплачен или отменен) и оплате не подлежит
	ErrInvoiceNotPayable = errors.New("invoices: invoice cannot be paid")

	// ErrZeroAmount возвращается при попытке выставить счет или создать
	// платежную ссылку на нулевую сумму
	ErrZeroAmount = errors.New("invoices: invoice amount must be positive")

	// ErrPaymentNotVerified возвращается, когда шлюз не подтвердил оплату
	ErrPaymentNotVerified = errors.New("invoices: payment is not verified by gateway")

	// ErrGatewayUnavailable возвращается, когда платежный шлюз недоступен
	// Состояние счета при этом не меняется, запрос можно повторить
	ErrGatewayUnavailable = errors.New("invoices: payment gateway is unavailable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invoices: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("invoices: internal error")
)
