package reschedule_booking

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingId must be positive", ErrInvalidInput)
	}

	if req.ToDate.IsZero() {
		return fmt.Errorf("%w: toDate is required", ErrInvalidInput)
	}

	if req.ToStartTime.IsZero() {
		return fmt.Errorf("%w: toStartTime is required", ErrInvalidInput)
	}

	if err := req.ToStartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid toStartTime format: %v", ErrInvalidInput, err)
	}

	if strings.TrimSpace(req.RescheduledBy) == "" {
		return fmt.Errorf("%w: rescheduledBy is required", ErrInvalidInput)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}

	return nil
}
