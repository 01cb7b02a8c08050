package consultations

import "errors"

var (
	// ErrConsultationNotFound возвращается, когда консультация не найдена
	ErrConsultationNotFound = errors.New("consultations: consultation not found")

	// ErrAlreadyDecided возвращается при попытке повторно записать решение
	ErrAlreadyDecided = errors.New("consultations: decision already recorded")

	// ErrInvalidDecision возвращается при недопустимом значении решения
	ErrInvalidDecision = errors.New("consultations: invalid decision")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("consultations: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("consultations: internal error")
)
