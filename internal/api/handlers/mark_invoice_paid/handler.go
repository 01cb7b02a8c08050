package mark_invoice_paid

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInvoiceID   = "некорректный ID счета"
	msgNotFound           = "счет не найден"
	msgExpired            = "срок оплаты счета истек"
	msgNotPayable         = "счет не подлежит оплате"
	msgPaymentNotVerified = "платеж не подтвержден шлюзом"
	msgGatewayUnavailable = "платежный шлюз временно недоступен"
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

// Handle POST /api/v1/invoices/{invoiceId}/pay
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /invoices/{invoiceId}/pay - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	var req models.MarkPaidRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /invoices/{invoiceId}/pay - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.service.MarkPaid(r.Context(), invoiceID, &req)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("POST /invoices/{invoiceId}/pay - Invoice not found: id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, invoices.ErrInvoiceExpired):
			h.logger.Warn("POST /invoices/{invoiceId}/pay - Invoice expired: id=%d", invoiceID)
			handlers.RespondGone(w, msgExpired)

		case errors.Is(err, invoices.ErrInvoiceNotPayable):
			h.logger.Warn("POST /invoices/{invoiceId}/pay - Invoice not payable: id=%d", invoiceID)
			handlers.RespondConflict(w, msgNotPayable)

		case errors.Is(err, invoices.ErrPaymentNotVerified):
			h.logger.Warn("POST /invoices/{invoiceId}/pay - Payment not verified: id=%d ref=%s", invoiceID, req.PaymentReference)
			handlers.RespondBadRequest(w, msgPaymentNotVerified)

		case errors.Is(err, invoices.ErrInvalidInput):
			h.logger.Warn("POST /invoices/{invoiceId}/pay - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, invoices.ErrGatewayUnavailable):
			h.logger.Error("POST /invoices/{invoiceId}/pay - Gateway unavailable: %v", err)
			handlers.RespondBadGateway(w, msgGatewayUnavailable)

		default:
			h.logger.Error("POST /invoices/{invoiceId}/pay - Failed to mark invoice paid: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /invoices/{invoiceId}/pay - Invoice paid: id=%d number=%s", resp.ID, resp.Number)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
