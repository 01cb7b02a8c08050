package reschedule_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	ToDate        string  `json:"toDate"`      // "2026-03-20"
	ToStartTime   string  `json:"toStartTime"` // "14:00"
	RescheduledBy string  `json:"rescheduledBy,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// RescheduleBookingResponse HTTP response model
type RescheduleBookingResponse struct {
	ID          int64  `json:"id"`
	BookingDate string `json:"bookingDate"`
	StartTime   string `json:"startTime"`
	Status      string `json:"status"`
}

// ToUseCaseRequest конвертирует HTTP request в модель usecase
func (r *RescheduleBookingRequest) ToUseCaseRequest(bookingID int64) (*reschedule_booking.Request, error) {
	toDate, err := time.Parse(domain.DateFormat, r.ToDate)
	if err != nil {
		return nil, fmt.Errorf("invalid toDate %q: %w", r.ToDate, err)
	}

	toStartTime, err := types.NewTimeStringFromString(r.ToStartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid toStartTime %q: %w", r.ToStartTime, err)
	}

	rescheduledBy := r.RescheduledBy
	if rescheduledBy == "" {
		rescheduledBy = "admin"
	}

	return &reschedule_booking.Request{
		BookingID:     bookingID,
		ToDate:        toDate,
		ToStartTime:   toStartTime,
		RescheduledBy: rescheduledBy,
		Notes:         r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ usecase в HTTP response
func FromUseCaseResponse(resp *reschedule_booking.Response) *RescheduleBookingResponse {
	return &RescheduleBookingResponse{
		ID:          resp.ID,
		BookingDate: resp.BookingDate.Format(domain.DateFormat),
		StartTime:   resp.StartTime.String(),
		Status:      resp.Status,
	}
}
