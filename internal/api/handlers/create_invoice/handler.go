package create_invoice

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgContractNotFound   = "договор не найден"
	msgContractNotSigned  = "счет можно выставить только по подписанному договору"
	msgZeroAmount         = "сумма счета должна быть больше нуля"
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

// Handle POST /api/v1/invoices
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /invoices - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.service.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrContractNotFound):
			h.logger.Warn("POST /invoices - Contract not found: id=%d", req.ContractID)
			handlers.RespondNotFound(w, msgContractNotFound)

		case errors.Is(err, invoices.ErrContractNotSigned):
			h.logger.Warn("POST /invoices - Contract not signed: id=%d", req.ContractID)
			handlers.RespondConflict(w, msgContractNotSigned)

		case errors.Is(err, invoices.ErrZeroAmount):
			h.logger.Warn("POST /invoices - Zero amount: contract=%d type=%s", req.ContractID, req.Type)
			handlers.RespondBadRequest(w, msgZeroAmount)

		case errors.Is(err, invoices.ErrInvalidInput):
			h.logger.Warn("POST /invoices - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /invoices - Failed to create invoice: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /invoices - Invoice created: id=%d number=%s", resp.ID, resp.Number)
	handlers.RespondJSON(w, http.StatusCreated, resp)
}
