package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidDecision возвращается при некорректном решении
	ErrInvalidDecision = errors.New("invalid admin decision")
)

// Request модели

// CreateConsultationRequest запрос на запись клиента на консультацию
type CreateConsultationRequest struct {
	ClientName       string    `json:"clientName"`
	ClientEmail      string    `json:"clientEmail"`
	ClientPhone      string    `json:"clientPhone"`
	ConsultationDate time.Time `json:"consultationDate"`
	ProjectBrief     *string   `json:"projectBrief,omitempty"`
}

// RecordDecisionRequest запрос на запись решения по консультации
type RecordDecisionRequest struct {
	Decision string  `json:"decision"` // proceed / decline
	Notes    *string `json:"notes,omitempty"`
}

// Response модели

// ConsultationResponse ответ с данными консультации
type ConsultationResponse struct {
	ID               int64   `json:"id"`
	ClientName       string  `json:"clientName"`
	ClientEmail      string  `json:"clientEmail"`
	ClientPhone      string  `json:"clientPhone"`
	ConsultationDate string  `json:"consultationDate"` // ISO 8601
	ProjectBrief     *string `json:"projectBrief,omitempty"`

	Status          string  `json:"status"`
	AdminDecision   *string `json:"adminDecision,omitempty"`
	AdminDecisionAt *string `json:"adminDecisionAt,omitempty"` // ISO 8601
	DecisionNotes   *string `json:"decisionNotes,omitempty"`

	ContractID *int64 `json:"contractId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Методы конвертации

// FromDomainConsultation конвертирует domain модель в DTO
func FromDomainConsultation(c *domain.Consultation) *ConsultationResponse {
	if c == nil {
		return nil
	}

	resp := &ConsultationResponse{
		ID:               c.ID,
		ClientName:       c.ClientName,
		ClientEmail:      c.ClientEmail,
		ClientPhone:      c.ClientPhone,
		ConsultationDate: c.ConsultationDate.Format(time.RFC3339),
		ProjectBrief:     c.ProjectBrief,
		Status:           string(c.Status),
		DecisionNotes:    c.DecisionNotes,
		ContractID:       c.ContractID,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}

	if c.AdminDecision != nil {
		decision := string(*c.AdminDecision)
		resp.AdminDecision = &decision
	}
	if c.AdminDecisionAt != nil {
		decidedStr := c.AdminDecisionAt.Format(time.RFC3339)
		resp.AdminDecisionAt = &decidedStr
	}

	return resp
}

// ToDomainDecision конвертирует строку в domain.AdminDecision с валидацией
func ToDomainDecision(decision string) (domain.AdminDecision, error) {
	d := domain.AdminDecision(decision)
	if d == domain.DecisionProceed || d == domain.DecisionDecline {
		return d, nil
	}
	return "", ErrInvalidDecision
}
