package sign_contract

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "договор не найден"
	msgExpired            = "окно подписания договора истекло"
	msgAlreadySigned      = "договор уже подписан"
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

// Handle POST /api/v1/contracts/{token}/sign
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token := vars["token"]

	var req SignContractRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /contracts/{token}/sign - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.service.Sign(r.Context(), token, req.ToServiceRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrContractNotFound):
			h.logger.Warn("POST /contracts/{token}/sign - Contract not found")
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, contracts.ErrContractExpired):
			h.logger.Warn("POST /contracts/{token}/sign - Contract expired")
			handlers.RespondGone(w, msgExpired)

		case errors.Is(err, contracts.ErrAlreadySigned):
			// Токен одноразовый: повторное подписание — потребленный ресурс
			h.logger.Warn("POST /contracts/{token}/sign - Already signed")
			handlers.RespondGone(w, msgAlreadySigned)

		case errors.Is(err, contracts.ErrInvalidInput):
			h.logger.Warn("POST /contracts/{token}/sign - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /contracts/{token}/sign - Failed to sign contract: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /contracts/{token}/sign - Contract signed: id=%d", resp.Contract.ID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
