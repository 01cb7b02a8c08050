package reschedule_booking

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_booking"
)

type RescheduleBookingUseCase interface {
	Execute(ctx context.Context, req *reschedule_booking.Request) (*reschedule_booking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
