package domain

import "time"

// ContractStatus статус договора
// Переходы монотонны: pending → signed либо pending → expired,
// обратного пути в pending нет
type ContractStatus string

const (
	ContractPending ContractStatus = "pending"
	ContractSigned  ContractStatus = "signed"
	ContractExpired ContractStatus = "expired"
)

// ContractTerms условия договора, встроенные в договор на момент создания
type ContractTerms struct {
	Deliverables       []string `json:"deliverables"`
	UpfrontPercent     int      `json:"upfrontPercent"`
	FinalPercent       int      `json:"finalPercent"`
	RevisionLimit      int      `json:"revisionLimit"`
	CancellationPolicy string   `json:"cancellationPolicy"`
}

// Contract договор по индивидуальному проекту
// Доступ снаружи только по непредсказуемому токену; окно подписания
// ограничено, истечение вычисляется лениво при каждом чтении
type Contract struct {
	ID             int64
	ConsultationID int64
	Token          string // единственный публичный ключ доступа к договору

	ProjectCost float64
	Terms       ContractTerms

	Status        ContractStatus
	SignedAt      *time.Time
	SignedByName  *string
	SignatureData *string
	SignatureType *string
	SignerIP      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpiredAt возвращает true, если договор просрочен на момент now
// Подписанный или уже просроченный договор не меняет статус
func (c *Contract) IsExpiredAt(now time.Time, signingWindow time.Duration) bool {
	return c.Status == ContractPending && now.Sub(c.CreatedAt) >= signingWindow
}

// CanBeSigned возвращает true, если договор еще можно подписать
func (c *Contract) CanBeSigned() bool {
	return c.Status == ContractPending
}
