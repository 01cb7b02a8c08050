package cancel_booking

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy,omitempty"` // admin / client
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest() *models.CancelBookingRequest {
	cancelledBy := r.CancelledBy
	if cancelledBy == "" {
		cancelledBy = "admin"
	}

	return &models.CancelBookingRequest{
		Reason:      r.Reason,
		CancelledBy: cancelledBy,
	}
}
