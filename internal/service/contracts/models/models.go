package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// CreateContractRequest запрос на создание договора по консультации
type CreateContractRequest struct {
	ConsultationID int64                `json:"consultationId"`
	ProjectCost    float64              `json:"projectCost"`
	Terms          ContractTermsRequest `json:"terms"`
}

// ContractTermsRequest условия договора
type ContractTermsRequest struct {
	Deliverables       []string `json:"deliverables"`
	UpfrontPercent     int      `json:"upfrontPercent"`
	RevisionLimit      int      `json:"revisionLimit"`
	CancellationPolicy string   `json:"cancellationPolicy"`
}

// SignContractRequest запрос на подписание договора
type SignContractRequest struct {
	SignedByName  string `json:"signedByName"`
	SignatureData string `json:"signatureData"`
	SignatureType string `json:"signatureType"` // typed / drawn
	SignerIP      *string
}

// Response модели

// ContractResponse ответ с данными договора
type ContractResponse struct {
	ID             int64   `json:"id"`
	ConsultationID int64   `json:"consultationId"`
	Token          string  `json:"token"`
	ProjectCost    float64 `json:"projectCost"`

	Terms ContractTermsResponse `json:"terms"`

	Status        string  `json:"status"`
	SignedAt      *string `json:"signedAt,omitempty"` // ISO 8601
	SignedByName  *string `json:"signedByName,omitempty"`
	SignatureType *string `json:"signatureType,omitempty"`

	ExpiresAt string `json:"expiresAt"` // ISO 8601, конец окна подписания

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContractTermsResponse условия договора
type ContractTermsResponse struct {
	Deliverables       []string `json:"deliverables"`
	UpfrontPercent     int      `json:"upfrontPercent"`
	FinalPercent       int      `json:"finalPercent"`
	RevisionLimit      int      `json:"revisionLimit"`
	CancellationPolicy string   `json:"cancellationPolicy"`
}

/// SignContractResponse ответ на подписание: договор и выставленный счет предоплаты
type SignContractResponse struct {
	Contract *ContractResponse `json:"contract"`
	Invoice  *InvoiceSummary   `json:"invoice,omitempty"`
}

// InvoiceSummary краткие данные автоматически выставленного счета
type InvoiceSummary struct {
	ID      int64   `json:"id"`
	Number  string  `json:"number"`
	Type    string  `json:"type"`
	Amount  float64 `json:"amount"`
	DueDate string  `json:"dueDate"` // YYYY-MM-DD
	Status  string  `json:"status"`
}

// CheckExpiredResponse результат sweep'а просроченных договоров
type CheckExpiredResponse struct {
	Expired int `json:"expired"`
}

// Методы конвертации

// FromDomainContract конвертирует domain модель в DTO
// signingWindow нужен для вычисления конца окна подписания
func FromDomainContract(c *domain.Contract, signingWindow time.Duration) *ContractResponse {
	if c == nil {
		return nil
	}

	resp := &ContractResponse{
		ID:             c.ID,
		ConsultationID: c.ConsultationID,
		Token:          c.Token,
		ProjectCost:    c.ProjectCost,
		Terms: ContractTermsResponse{
			Deliverables:       c.Terms.Deliverables,
			UpfrontPercent:     c.Terms.UpfrontPercent,
			FinalPercent:       c.Terms.FinalPercent,
			RevisionLimit:      c.Terms.RevisionLimit,
			CancellationPolicy: c.Terms.CancellationPolicy,
		},
		Status:        string(c.Status),
		SignedByName:  c.SignedByName,
		SignatureType: c.SignatureType,
		ExpiresAt:     c.CreatedAt.Add(signingWindow).Format(time.RFC3339),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}

	if c.SignedAt != nil {
		signedStr := c.SignedAt.Format(time.RFC3339)
		resp.SignedAt = &signedStr
	}

	return resp
}

// FromDomainInvoiceSummary конвертирует счет в краткое DTO
func FromDomainInvoiceSummary(inv *domain.Invoice) *InvoiceSummary {
	if inv == nil {
		return nil
	}
	return &InvoiceSummary{
		ID:      inv.ID,
		Number:  inv.Number,
		Type:    string(inv.Type),
		Amount:  inv.Amount,
		DueDate: inv.DueDate.Format(domain.DateFormat),
		Status:  string(inv.Status),
	}
}
