package reserve_slot

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ReserveSlotRequest HTTP request model
type ReserveSlotRequest struct {
	Date             string `json:"date"`      // "2026-03-15"
	StartTime        string `json:"startTime"` // "10:00"
	BookingReference string `json:"bookingReference,omitempty"`
}

// ReserveSlotResponse HTTP response model
type ReserveSlotResponse struct {
	Reserved         bool   `json:"reserved"`
	BookingReference string `json:"bookingReference"`
	ExpiresAt        string `json:"expiresAt"` // ISO 8601
}

// ToUseCaseRequest конвертирует HTTP request в модель usecase
func (r *ReserveSlotRequest) ToUseCaseRequest(reference string) (*reserve_slot.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid startTime %q: %w", r.StartTime, err)
	}

	return &reserve_slot.Request{
		Date:             date,
		StartTime:        startTime,
		BookingReference: reference,
	}, nil
}

// FromUseCaseResponse конвертирует ответ usecase в HTTP response
func FromUseCaseResponse(resp *reserve_slot.Response, reference string) *ReserveSlotResponse {
	return &ReserveSlotResponse{
		Reserved:         resp.Reserved,
		BookingReference: reference,
		ExpiresAt:        resp.ExpiresAt.Format(time.RFC3339),
	}
}
