package domain

import "time"

// ConsultationStatus статус консультации
type ConsultationStatus string

const (
	ConsultationPending   ConsultationStatus = "pending"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationDeclined  ConsultationStatus = "declined"
)

// AdminDecision решение по итогам консультации
type AdminDecision string

const (
	DecisionProceed AdminDecision = "proceed"
	DecisionDecline AdminDecision = "decline"
)

// Consultation предпродажная консультация по индивидуальному проекту
// После записи решения консультация становится read-only историей:
// proceed открывает путь к созданию договора, decline — терминален
type Consultation struct {
	ID int64

	ClientName  string
	ClientEmail string
	ClientPhone string

	ConsultationDate time.Time
	ProjectBrief     *string

	Status          ConsultationStatus
	AdminDecision   *AdminDecision
	AdminDecisionAt *time.Time
	DecisionNotes   *string

	ContractID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDecided возвращает true, если решение по консультации уже записано
func (c *Consultation) IsDecided() bool {
	return c.AdminDecision != nil
}

// CanProceedToContract возвращает true, если по консультации можно создать договор
func (c *Consultation) CanProceedToContract() bool {
	return c.AdminDecision != nil && *c.AdminDecision == DecisionProceed
}
