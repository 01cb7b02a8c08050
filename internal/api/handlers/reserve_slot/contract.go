package reserve_slot

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_slot"
)

type ReserveSlotUseCase interface {
	Execute(ctx context.Context, req *reserve_slot.Request) (*reserve_slot.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
