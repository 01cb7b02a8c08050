package get_contract

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts"
)

const (
	msgNotFound      = "договор не найден"
	msgExpired       = "окно подписания договора истекло"
	msgTokenConsumed = "токен договора уже использован"
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

// Handle GET /api/v1/contracts/{token}
// Договор адресуется только по непредсказуемому токену
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token := vars["token"]

	resp, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrContractNotFound):
			h.logger.Warn("GET /contracts/{token} - Contract not found")
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, contracts.ErrContractExpired):
			h.logger.Warn("GET /contracts/{token} - Contract expired")
			handlers.RespondGone(w, msgExpired)

		case errors.Is(err, contracts.ErrAlreadySigned):
			h.logger.Warn("GET /contracts/{token} - Token already consumed")
			handlers.RespondGone(w, msgTokenConsumed)

		case errors.Is(err, contracts.ErrInvalidInput):
			h.logger.Warn("GET /contracts/{token} - Invalid token: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("GET /contracts/{token} - Failed to get contract: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /contracts/{token} - Contract fetched: id=%d", resp.ID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
