package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgSlotTaken          = "слот уже занят подтвержденной записью"
	msgPaymentNotVerified = "платеж не подтвержден шлюзом"
	msgGatewayUnavailable = "платежный шлюз недоступен, повторите запрос"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/webhook
// Идемпотентен по paymentReference: повторный webhook возвращает
// уже созданное бронирование
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PaymentWebhookRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/webhook - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /payments/webhook - Invalid payload: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, create_booking.ErrSlotTaken):
			h.logger.Warn("POST /payments/webhook - Slot taken: reference=%s", req.Reference)
			handlers.RespondConflict(w, msgSlotTaken)

		case errors.Is(err, create_booking.ErrPaymentNotVerified):
			h.logger.Warn("POST /payments/webhook - Payment not verified: payment_reference=%s",
				req.PaymentReference)
			handlers.RespondBadRequest(w, msgPaymentNotVerified)

		case errors.Is(err, create_booking.ErrGatewayUnavailable):
			h.logger.Warn("POST /payments/webhook - Gateway unavailable: payment_reference=%s",
				req.PaymentReference)
			handlers.RespondBadGateway(w, msgGatewayUnavailable)

		case errors.Is(err, create_booking.ErrInvalidInput):
			h.logger.Warn("POST /payments/webhook - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /payments/webhook - Failed to create booking: reference=%s, error=%v",
				req.Reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/webhook - Booking confirmed: id=%d, reference=%s", resp.ID, resp.Reference)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(resp))
}
