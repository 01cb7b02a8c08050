package clear_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/bookings
// Полная очистка журнала записей. Записи нигде больше физически
// не удаляются, поэтому операция доступна только администратору
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		h.logger.Error("DELETE /bookings - Failed to clear bookings: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /bookings - All bookings cleared")
	w.WriteHeader(http.StatusNoContent)
}
