package list_contract_invoices

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices"
)

const (
	msgInvalidContractID = "некорректный ID договора"
	msgContractNotFound  = "договор не найден"
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

// Handle GET /api/v1/contracts/{contractId}/invoices
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	contractID, err := strconv.ParseInt(vars["contractId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /contracts/{contractId}/invoices - Invalid contract ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidContractID)
		return
	}

	resp, err := h.service.ListByContract(r.Context(), contractID)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrContractNotFound):
			h.logger.Warn("GET /contracts/{contractId}/invoices - Contract not found: id=%d", contractID)
			handlers.RespondNotFound(w, msgContractNotFound)

		default:
			h.logger.Error("GET /contracts/{contractId}/invoices - Failed to list invoices: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
