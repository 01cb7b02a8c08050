package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// PaymentWebhookRequest HTTP request model платежного webhook'а
// Содержимое не считается доверенным: транзакция перепроверяется в шлюзе
type PaymentWebhookRequest struct {
	Reference        string  `json:"reference"` // bookingReference удержания
	PaymentReference string  `json:"paymentReference"`
	ClientName       string  `json:"clientName"`
	ClientEmail      string  `json:"clientEmail"`
	ClientPhone      string  `json:"clientPhone"`
	Date             string  `json:"date"`      // "2026-03-15"
	StartTime        string  `json:"startTime"` // "10:00"
	ServiceID        int64   `json:"serviceId"`
	ServiceName      string  `json:"serviceName"`
	OriginalPrice    float64 `json:"originalPrice"`
	Discount         float64 `json:"discount"`
	FinalPrice       float64 `json:"finalPrice"`
	Deposit          float64 `json:"deposit"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	BookingDate string `json:"bookingDate"`
	StartTime   string `json:"startTime"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"` // ISO 8601
}

// ToUseCaseRequest конвертирует HTTP request в модель usecase
func (r *PaymentWebhookRequest) ToUseCaseRequest() (*create_booking.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid startTime %q: %w", r.StartTime, err)
	}

	return &create_booking.Request{
		Reference:        r.Reference,
		PaymentReference: r.PaymentReference,
		ClientName:       r.ClientName,
		ClientEmail:      r.ClientEmail,
		ClientPhone:      r.ClientPhone,
		Date:             date,
		StartTime:        startTime,
		ServiceID:        r.ServiceID,
		ServiceName:      r.ServiceName,
		OriginalPrice:    r.OriginalPrice,
		Discount:         r.Discount,
		FinalPrice:       r.FinalPrice,
		Deposit:          r.Deposit,
	}, nil
}

// FromUseCaseResponse конвертирует ответ usecase в HTTP response
func FromUseCaseResponse(resp *create_booking.Response) *BookingResponse {
	return &BookingResponse{
		ID:          resp.ID,
		Reference:   resp.Reference,
		BookingDate: resp.BookingDate.Format(domain.DateFormat),
		StartTime:   resp.StartTime.String(),
		Status:      resp.Status,
		CreatedAt:   resp.CreatedAt.Format(time.RFC3339),
	}
}
