package check_expired_contracts

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

type Handler struct {
	service ContractService
	logger  Logger
}

func NewHandler(service ContractService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/contracts/check-expired
// Идемпотентный sweep просроченных договоров: страховка на случай,
// когда ленивое истечение при чтении долго не срабатывает
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.CheckExpired(r.Context())
	if err != nil {
		h.logger.Error("GET /contracts/check-expired - Sweep failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /contracts/check-expired - %d contracts expired", resp.Expired)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
