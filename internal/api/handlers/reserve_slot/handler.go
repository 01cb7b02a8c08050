package reserve_slot

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reserve_slot"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSlot        = "некорректные дата или время слота"
	msgSlotReserved       = "слот уже удержан другим клиентом"
	msgSlotBooked         = "слот уже занят подтвержденной записью"
)

type Handler struct {
	useCase ReserveSlotUseCase
	logger  Logger
}

func NewHandler(useCase ReserveSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/slots/reserve
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ReserveSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/reserve - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Если клиент не прислал ссылку бронирования, генерируем новую:
	// повторный запрос с той же ссылкой продлевает удержание
	reference := req.BookingReference
	if reference == "" {
		reference = uuid.NewString()
	}

	useCaseReq, err := req.ToUseCaseRequest(reference)
	if err != nil {
		h.logger.Warn("POST /slots/reserve - Invalid slot params: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlot)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, reserve_slot.ErrSlotReserved):
			h.logger.Warn("POST /slots/reserve - Slot held by another client: date=%s, time=%s",
				req.Date, req.StartTime)
			handlers.RespondConflict(w, msgSlotReserved)

		case errors.Is(err, reserve_slot.ErrSlotBooked):
			h.logger.Warn("POST /slots/reserve - Slot already booked: date=%s, time=%s",
				req.Date, req.StartTime)
			handlers.RespondConflict(w, msgSlotBooked)

		case errors.Is(err, reserve_slot.ErrInvalidInput), errors.Is(err, reserve_slot.ErrInvalidDate):
			h.logger.Warn("POST /slots/reserve - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /slots/reserve - Failed to reserve slot: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/reserve - Slot reserved: date=%s, time=%s, reference=%s",
		req.Date, req.StartTime, reference)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp, reference))
}
