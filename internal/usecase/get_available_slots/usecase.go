package get_available_slots

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// UseCase use case получения слотов расписания на дату
type UseCase struct {
	bookingRepo     BookingRepository
	reservationRepo ReservationRepository
	schedule        Schedule
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	reservationRepo ReservationRepository,
	schedule Schedule,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:     bookingRepo,
		reservationRepo: reservationRepo,
		schedule:        schedule,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute возвращает сетку слотов на дату с признаком доступности.
// Слот недоступен, если на него есть подтвержденная запись или
// неистекшее удержание. Результат носит справочный характер:
// окончательная проверка занятости выполняется при резервировании
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	// Выходной день - пустая сетка
	if uc.schedule.ClosedWeekdays[req.Date.Weekday()] {
		uc.logger.Info("GetAvailableSlots: date=%s is a closed weekday", req.Date.Format(domain.DateFormat))
		return &Response{Date: req.Date, Slots: []Slot{}}, nil
	}

	now := uc.timeProvider.Now()

	occupied := make(map[types.TimeString]bool)

	// 1. Подтвержденные записи на дату
	status := domain.StatusConfirmed
	bookings, err := uc.bookingRepo.GetWithFilter(ctx, domain.BookingsFilter{
		StartDate: &req.Date,
		EndDate:   &req.Date,
		Status:    &status,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}
	for _, b := range bookings {
		occupied[b.StartTime] = true
	}

	// 2. Активные удержания на дату (истекшие отфильтровываются запросом)
	reservations, err := uc.reservationRepo.GetActiveByDate(ctx, req.Date, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get reservations: %v", err)
		return nil, fmt.Errorf("%w: failed to get reservations: %v", ErrInternal, err)
	}
	for _, res := range reservations {
		occupied[res.StartTime] = true
	}

	// 3. Строим сетку слотов от открытия до закрытия
	slots := make([]Slot, 0)
	for t := uc.schedule.OpenTime; t.IsBefore(uc.schedule.CloseTime); {
		slots = append(slots, Slot{
			StartTime: t,
			Available: !occupied[t],
		})

		next, err := t.AddMinutes(uc.schedule.SlotDuration)
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to advance slot time from %s: %v", t, err)
			return nil, fmt.Errorf("%w: failed to build slot grid: %v", ErrInternal, err)
		}
		t = next
	}

	uc.logger.Info("GetAvailableSlots: date=%s, slots=%d, occupied=%d",
		req.Date.Format(domain.DateFormat), len(slots), len(occupied))

	return &Response{Date: req.Date, Slots: slots}, nil
}
