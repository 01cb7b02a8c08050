package check_expired_invoices

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

type Handler struct {
	service InvoiceService
	logger  Logger
}

func NewHandler(service InvoiceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/invoices/check-expired
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.CheckExpired(r.Context())
	if err != nil {
		h.logger.Error("GET /invoices/check-expired - Sweep failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /invoices/check-expired - %d invoices expired", resp.Expired)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
