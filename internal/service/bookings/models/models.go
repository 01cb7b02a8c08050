package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy"` // admin / client
}

// ListBookingsRequest запрос на получение списка бронирований
type ListBookingsRequest struct {
	StartDate       *time.Time `json:"startDate,omitempty"`       // Начало периода (опционально)
	EndDate         *time.Time `json:"endDate,omitempty"`         // Конец периода (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить отмененные записи
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	ClientPhone string `json:"clientPhone"`
	BookingDate string `json:"bookingDate"` // "2026-03-15"
	StartTime   string `json:"startTime"`   // "10:00"
	ServiceID   int64  `json:"serviceId"`
	ServiceName string `json:"serviceName"`

	OriginalPrice float64 `json:"originalPrice"`
	Discount      float64 `json:"discount"`
	FinalPrice    float64 `json:"finalPrice"`
	Deposit       float64 `json:"deposit"`

	Status           string  `json:"status"`
	PaymentReference *string `json:"paymentReference,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601
	CancelledBy        *string `json:"cancelledBy,omitempty"`

	RefundStatus string   `json:"refundStatus"`
	RefundAmount *float64 `json:"refundAmount,omitempty"`
	RefundNotes  *string  `json:"refundNotes,omitempty"`

	RescheduledAt *string `json:"rescheduledAt,omitempty"` // ISO 8601
	RescheduledBy *string `json:"rescheduledBy,omitempty"`

	RescheduleHistory []RescheduleEntryResponse `json:"rescheduleHistory,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RescheduleEntryResponse запись истории переносов
type RescheduleEntryResponse struct {
	FromDate      string  `json:"fromDate"`
	FromStartTime string  `json:"fromStartTime"`
	ToDate        string  `json:"toDate"`
	ToStartTime   string  `json:"toStartTime"`
	RescheduledAt string  `json:"rescheduledAt"` // ISO 8601
	RescheduledBy string  `json:"rescheduledBy"`
	Notes         *string `json:"notes,omitempty"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// CancelBookingResponse ответ на отмену с решением по возврату
type CancelBookingResponse struct {
	ID           int64    `json:"id"`
	Status       string   `json:"status"`
	RefundStatus string   `json:"refundStatus"`
	RefundAmount *float64 `json:"refundAmount,omitempty"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		ClientName:         b.ClientName,
		ClientEmail:        b.ClientEmail,
		ClientPhone:        b.ClientPhone,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		ServiceID:          b.ServiceID,
		ServiceName:        b.ServiceName,
		OriginalPrice:      b.OriginalPrice,
		Discount:           b.Discount,
		FinalPrice:         b.FinalPrice,
		Deposit:            b.Deposit,
		Status:             string(b.Status),
		PaymentReference:   b.PaymentReference,
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
		RefundStatus:       string(b.RefundStatus),
		RefundAmount:       b.RefundAmount,
		RefundNotes:        b.RefundNotes,
		RescheduledBy:      b.RescheduledBy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}
	if b.RescheduledAt != nil {
		rescheduledStr := b.RescheduledAt.Format(time.RFC3339)
		resp.RescheduledAt = &rescheduledStr
	}

	return resp
}

// FromDomainRescheduleHistory конвертирует историю переносов в DTO
func FromDomainRescheduleHistory(entries []*domain.RescheduleEntry) []RescheduleEntryResponse {
	history := make([]RescheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		history = append(history, RescheduleEntryResponse{
			FromDate:      e.FromDate.Format(domain.DateFormat),
			FromStartTime: e.FromStartTime.String(),
			ToDate:        e.ToDate.Format(domain.DateFormat),
			ToStartTime:   e.ToStartTime.String(),
			RescheduledAt: e.RescheduledAt.Format(time.RFC3339),
			RescheduledBy: e.RescheduledBy,
			Notes:         e.Notes,
		})
	}
	return history
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	validStatuses := []domain.BookingStatus{
		domain.StatusConfirmed,
		domain.StatusCancelled,
		domain.StatusCompleted,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
