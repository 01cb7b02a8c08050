package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidType возвращается при некорректном типе счета
	ErrInvalidType = errors.New("invalid invoice type")
)

// Request модели

// CreateInvoiceRequest запрос на выставление счета по договору
type CreateInvoiceRequest struct {
	ContractID int64  `json:"contractId"`
	Type       string `json:"type"` // full / downpayment / final
}

// MarkPaidRequest запрос на отметку оплаты счета
type MarkPaidRequest struct {
	PaymentReference string `json:"paymentReference"`
}

// Response модели

// InvoiceResponse ответ с данными счета
type InvoiceResponse struct {
	ID             int64  `json:"id"`
	ContractID     int64  `json:"contractId"`
	ConsultationID int64  `json:"consultationId"`
	Number         string `json:"number"`
	Type           string `json:"type"`

	Amount     float64 `json:"amount"`
	IssueDate  string  `json:"issueDate"`  // YYYY-MM-DD
	DueDate    string  `json:"dueDate"`    // YYYY-MM-DD
	ExpiryDate string  `json:"expiryDate"` // YYYY-MM-DD

	Status           string  `json:"status"`
	PaymentReference *string `json:"paymentReference,omitempty"`
	PaidAt           *string `json:"paidAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InvoiceListResponse ответ со списком счетов
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
}

// PaymentLinkResponse ответ с платежной ссылкой шлюза
type PaymentLinkResponse struct {
	InvoiceID  int64   `json:"invoiceId"`
	Number     string  `json:"number"`
	Amount     float64 `json:"amount"`
	PaymentURL string  `json:"paymentUrl"`
}

// CheckExpiredResponse результат sweep'а просроченных счетов
type CheckExpiredResponse struct {
	Expired int `json:"expired"`
}

// Методы конвертации

// FromDomainInvoice конвертирует domain модель в DTO
func FromDomainInvoice(inv *domain.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}

	resp := &InvoiceResponse{
		ID:               inv.ID,
		ContractID:       inv.ContractID,
		ConsultationID:   inv.ConsultationID,
		Number:           inv.Number,
		Type:             string(inv.Type),
		Amount:           inv.Amount,
		IssueDate:        inv.IssueDate.Format(domain.DateFormat),
		DueDate:          inv.DueDate.Format(domain.DateFormat),
		ExpiryDate:       inv.ExpiryDate.Format(domain.DateFormat),
		Status:           string(inv.Status),
		PaymentReference: inv.PaymentReference,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}

	if inv.PaidAt != nil {
		paidStr := inv.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidStr
	}

	return resp
}

// FromDomainInvoiceList конвертирует список domain моделей в DTO
func FromDomainInvoiceList(invoices []*domain.Invoice) *InvoiceListResponse {
	resp := &InvoiceListResponse{
		Invoices: make([]InvoiceResponse, 0, len(invoices)),
	}
	for _, inv := range invoices {
		if invResp := FromDomainInvoice(inv); invResp != nil {
			resp.Invoices = append(resp.Invoices, *invResp)
		}
	}
	return resp
}

// ToDomainInvoiceType конвертирует строку в domain.InvoiceType с валидацией
func ToDomainInvoiceType(invoiceType string) (domain.InvoiceType, error) {
	t := domain.InvoiceType(invoiceType)
	if t == domain.InvoiceFull || t == domain.InvoiceDownpayment || t == domain.InvoiceFinal {
		return t, nil
	}
	return "", ErrInvalidType
}
