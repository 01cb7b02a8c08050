package list_bookings

import (
	"fmt"
	"net/url"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

// ParseQuery собирает фильтр списка бронирований из query-параметров
// Поддерживаются startDate, endDate (YYYY-MM-DD), status, includeInactive
func ParseQuery(query url.Values) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{}

	if v := query.Get("startDate"); v != "" {
		date, err := time.Parse(domain.DateFormat, v)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate %q: %w", v, err)
		}
		req.StartDate = &date
	}

	if v := query.Get("endDate"); v != "" {
		date, err := time.Parse(domain.DateFormat, v)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate %q: %w", v, err)
		}
		req.EndDate = &date
	}

	if v := query.Get("status"); v != "" {
		req.Status = &v
	}

	if query.Get("includeInactive") == "true" {
		req.IncludeInactive = true
	}

	return req, nil
}
