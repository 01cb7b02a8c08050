package create_contract

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts"
	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
)

const (
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgConsultationNotFound = "консультация не найдена"
	msgNotEligible          = "по консультации нет решения proceed"
	msgContractExists       = "по консультации уже создан договор"
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

// Handle POST /api/v1/contracts
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContractRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /contracts - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.service.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrConsultationNotFound):
			h.logger.Warn("POST /contracts - Consultation not found: consultation_id=%d", req.ConsultationID)
			handlers.RespondNotFound(w, msgConsultationNotFound)

		case errors.Is(err, contracts.ErrConsultationNotEligible):
			h.logger.Warn("POST /contracts - Consultation not eligible: consultation_id=%d", req.ConsultationID)
			handlers.RespondConflict(w, msgNotEligible)

		case errors.Is(err, contracts.ErrContractExists):
			h.logger.Warn("POST /contracts - Contract exists: consultation_id=%d", req.ConsultationID)
			handlers.RespondConflict(w, msgContractExists)

		case errors.Is(err, contracts.ErrInvalidInput):
			h.logger.Warn("POST /contracts - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /contracts - Failed to create contract: consultation_id=%d, error=%v",
				req.ConsultationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /contracts - Contract created: id=%d, consultation_id=%d", resp.ID, req.ConsultationID)
	handlers.RespondJSON(w, http.StatusCreated, resp)
}
