package domain

import (
	"math"
	"time"
)

// RefundPolicy политика возврата средств при отмене записи
// Правило: если до начала записи осталось меньше CutoffHours часов,
// возврат не положен; иначе возвращается депозит
type RefundPolicy struct {
	CutoffHours int
}

// NewRefundPolicy создает политику возврата
func NewRefundPolicy(cutoffHours int) RefundPolicy {
	if cutoffHours <= 0 {
		cutoffHours = DefaultRefundCutoffHours
	}
	return RefundPolicy{CutoffHours: cutoffHours}
}

// Evaluate вычисляет статус и сумму возврата для отменяемой записи
// Если момент начала записи вычислить не удается, возврат не назначается
func (p RefundPolicy) Evaluate(b *Booking, now time.Time) (RefundStatus, float64) {
	startsAt, err := b.StartsAt()
	if err != nil {
		return RefundNone, 0
	}

	cutoff := startsAt.Add(-time.Duration(p.CutoffHours) * time.Hour)
	if now.After(cutoff) {
		return RefundDenied, 0
	}

	return RefundPending, b.Deposit
}

// PaymentSplitPolicy политика раздельной оплаты по договору
// Определяет суммы счета предоплаты и финального счета
type PaymentSplitPolicy struct {
	UpfrontPercent int
}

// NewPaymentSplitPolicy создает политику раздельной оплаты
func NewPaymentSplitPolicy(upfrontPercent int) PaymentSplitPolicy {
	if upfrontPercent < MinUpfrontPercent || upfrontPercent > MaxUpfrontPercent {
		upfrontPercent = DefaultUpfrontPercent
	}
	return PaymentSplitPolicy{UpfrontPercent: upfrontPercent}
}

// UpfrontAmount возвращает сумму предоплаты от полной стоимости проекта
func (p PaymentSplitPolicy) UpfrontAmount(total float64) float64 {
	return roundMoney(total * float64(p.UpfrontPercent) / 100)
}

// FinalAmount возвращает сумму финального счета: остаток после уже оплаченного
func (p PaymentSplitPolicy) FinalAmount(total, alreadyPaid float64) float64 {
	remaining := total - alreadyPaid
	if remaining < 0 {
		return 0
	}
	return roundMoney(remaining)
}

// roundMoney округляет сумму до копеек
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
