package invoice_payment_link

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/invoices"
)

const (
	msgInvalidInvoiceID   = "некорректный ID счета"
	msgInvalidAmount      = "некорректная сумма оплаты"
	msgNotFound           = "счет не найден"
	msgExpired            = "срок оплаты счета истек"
	msgNotPayable         = "счет не подлежит оплате"
	msgZeroAmount         = "сумма оплаты должна быть больше нуля"
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

// Handle GET /api/v1/invoices/{invoiceId}/payment-link?amount=
// Перенаправляет клиента на checkout-страницу шлюза. Необязательный
// параметр amount выставляет частичную оплату вместо суммы счета
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /invoices/{invoiceId}/payment-link - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	var amountOverride *float64
	if raw := r.URL.Query().Get("amount"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.logger.Warn("GET /invoices/{invoiceId}/payment-link - Invalid amount %q: %v", raw, err)
			handlers.RespondBadRequest(w, msgInvalidAmount)
			return
		}
		amountOverride = &amount
	}

	resp, err := h.service.PaymentLink(r.Context(), invoiceID, amountOverride)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("GET /invoices/{invoiceId}/payment-link - Invoice not found: id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, invoices.ErrInvoiceExpired):
			h.logger.Warn("GET /invoices/{invoiceId}/payment-link - Invoice expired: id=%d", invoiceID)
			handlers.RespondGone(w, msgExpired)

		case errors.Is(err, invoices.ErrInvoiceNotPayable):
			h.logger.Warn("GET /invoices/{invoiceId}/payment-link - Invoice not payable: id=%d", invoiceID)
			handlers.RespondConflict(w, msgNotPayable)

		case errors.Is(err, invoices.ErrZeroAmount):
			h.logger.Warn("GET /invoices/{invoiceId}/payment-link - Non-positive amount: id=%d", invoiceID)
			handlers.RespondBadRequest(w, msgZeroAmount)

		case errors.Is(err, invoices.ErrGatewayUnavailable):
			h.logger.Error("GET /invoices/{invoiceId}/payment-link - Gateway unavailable: %v", err)
			handlers.RespondBadGateway(w, msgGatewayUnavailable)

		default:
			h.logger.Error("GET /invoices/{invoiceId}/payment-link - Failed to create payment link: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /invoices/{invoiceId}/payment-link - Redirecting invoice id=%d to gateway", invoiceID)
	http.Redirect(w, r, resp.PaymentURL, http.StatusFound)
}
