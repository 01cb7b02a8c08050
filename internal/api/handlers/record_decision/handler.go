package record_decision

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/consultations"
	"github.com/m04kA/SMC-AppointmentService/internal/service/consultations/models"
)

const (
	msgInvalidConsultationID = "некорректный ID консультации"
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgInvalidDecision       = "решение должно быть proceed или decline"
	msgNotFound              = "консультация не найдена"
	msgAlreadyDecided        = "решение по консультации уже записано"
)

type Handler struct {
	service ConsultationService
	logger  Logger
}

func NewHandler(service ConsultationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/consultations/{consultationId}/decision
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	consultationID, err := strconv.ParseInt(vars["consultationId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /consultations/{id}/decision - Invalid consultation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidConsultationID)
		return
	}

	var req models.RecordDecisionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /consultations/{id}/decision - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.service.RecordDecision(r.Context(), consultationID, &req)
	if err != nil {
		switch {
		case errors.Is(err, consultations.ErrConsultationNotFound):
			h.logger.Warn("PATCH /consultations/{id}/decision - Consultation not found: consultation_id=%d",
				consultationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, consultations.ErrAlreadyDecided):
			h.logger.Warn("PATCH /consultations/{id}/decision - Already decided: consultation_id=%d",
				consultationID)
			handlers.RespondConflict(w, msgAlreadyDecided)

		case errors.Is(err, consultations.ErrInvalidDecision):
			h.logger.Warn("PATCH /consultations/{id}/decision - Invalid decision: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDecision)

		default:
			h.logger.Error("PATCH /consultations/{id}/decision - Failed to record decision: consultation_id=%d, error=%v",
				consultationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /consultations/{id}/decision - Decision recorded: consultation_id=%d, status=%s",
		consultationID, resp.Status)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
