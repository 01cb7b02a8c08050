package domain

import "time"

// InvoiceStatus статус счета
// paid и cancelled — поглощающие состояния: проверка истечения их не трогает
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceExpired   InvoiceStatus = "expired"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceType тип счета при раздельной оплате
type InvoiceType string

const (
	InvoiceFull        InvoiceType = "full"
	InvoiceDownpayment InvoiceType = "downpayment"
	InvoiceFinal       InvoiceType = "final"
)

// Invoice счет на оплату по подписанному договору
// При раздельной оплате выставляются счет предоплаты и финальный счет,
// каждый со своим сроком действия
type Invoice struct {
	ID             int64
	ContractID     int64
	ConsultationID int64
	Number         string
	Type           InvoiceType

	Amount     float64
	IssueDate  time.Time
	DueDate    time.Time
	ExpiryDate time.Time

	Status           InvoiceStatus
	PaymentReference *string
	PaidAt           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal возвращает true, если счет в поглощающем состоянии
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoicePaid || i.Status == InvoiceCancelled
}

// IsExpiredAt возвращает true, если счет просрочен на момент now
// Оплаченный счет — исторический факт, истечению не подлежит
func (i *Invoice) IsExpiredAt(now time.Time) bool {
	return i.Status == InvoiceSent && now.After(i.ExpiryDate)
}

// CanBePaid возвращает true, если по счету можно принять оплату
func (i *Invoice) CanBePaid() bool {
	return i.Status == InvoiceDraft || i.Status == InvoiceSent
}
