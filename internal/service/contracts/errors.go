package contracts

import "errors"

var (
	// ErrConsultationNotFound возвращается, когда консультация не найдена
	ErrConsultationNotFound = errors.New("contracts: consultation not found")

	// ErrConsultationNotEligible возвращается, когда по консультации
	// нет решения proceed
	ErrConsultationNotEligible = errors.New("contracts: consultation is not eligible for contract")

	// ErrContractExists возвращается, когда по консультации уже есть договор
	ErrContractExists = errors.New("contracts: contract already exists for consultation")

	// ErrContractNotFound возвращается, когда договор не найден
	ErrContractNotFound = errors.New("contracts: contract not found")

	// ErrContractExpired возвращается, когда окно подписания договора истекло
	ErrContractExpired = errors.New("contracts: contract signing window has expired")

	// ErrAlreadySigned возвращается при попытке подписать подписанный договор
	ErrAlreadySigned = errors.New("contracts: contract is already signed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("contracts: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("contracts: internal error")
)
