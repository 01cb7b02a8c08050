package paymentgateway

// CheckoutRequest запрос на создание платежной сессии в шлюзе
type CheckoutRequest struct {
	Reference   string  `json:"reference"`   // наша ссылка (номер счета или бронирования)
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	CallbackURL string  `json:"callback_url"`
}

// Checkout созданная платежная сессия
type Checkout struct {
	Reference  string `json:"reference"`   // ссылка транзакции на стороне шлюза
	PaymentURL string `json:"payment_url"` // URL hosted-страницы оплаты
	Status     string `json:"status"`
}

// Transaction результат проверки транзакции
type Transaction struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"` // success | failed | pending
	PaidAt    string  `json:"paid_at,omitempty"`
}

// ErrorResponse модель ошибки от платежного шлюза
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsSuccessful возвращает true, если транзакция завершилась оплатой
func (t *Transaction) IsSuccessful() bool {
	return t.Status == "success"
}
