package reschedule_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
)

// UseCase use case переноса бронирования на другой слот
type UseCase struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, txManager TransactionManager, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute переносит бронирование на новый слот
// Проверка занятости целевого слота и запись выполняются в одной
// сериализуемой транзакции; при конфликте исходная запись не меняется,
// в историю переносов добавляется запись с прежним слотом как "from"
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleBooking: id=%d, to=%s %s, by=%s",
		req.BookingID, req.ToDate.Format(domain.DateFormat), req.ToStartTime, req.RescheduledBy)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	var result *Response

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Получаем бронирование
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("RescheduleBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("RescheduleBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 2.2. Переносить можно только подтвержденную запись
		if !booking.CanBeRescheduled() {
			uc.logger.Warn("RescheduleBooking: booking id=%d cannot be rescheduled, status=%s",
				booking.ID, booking.Status)
			return ErrCannotReschedule
		}

		// 2.3. Перенос на тот же слот не имеет смысла
		if booking.BookingDate.Equal(req.ToDate) && booking.StartTime == req.ToStartTime {
			return ErrSameSlot
		}

		// 2.4. Целевой слот не должен быть занят другой подтвержденной записью
		occupants, err := uc.bookingRepo.GetConfirmedAtSlot(txCtx, req.ToDate, req.ToStartTime)
		if err != nil {
			uc.logger.Error("RescheduleBooking: failed to check destination slot: %v", err)
			return fmt.Errorf("%w: failed to check destination slot: %v", ErrInternal, err)
		}
		for _, occupant := range occupants {
			if occupant.ID != booking.ID {
				uc.logger.Warn("RescheduleBooking: destination slot %s %s taken by booking id=%d",
					req.ToDate.Format(domain.DateFormat), req.ToStartTime, occupant.ID)
				return ErrSlotTaken
			}
		}

		// 2.5. Фиксируем историю переноса с прежним слотом как "from"
		entry := &domain.RescheduleEntry{
			BookingID:     booking.ID,
			FromDate:      booking.BookingDate,
			FromStartTime: booking.StartTime,
			ToDate:        req.ToDate,
			ToStartTime:   req.ToStartTime,
			RescheduledAt: now,
			RescheduledBy: req.RescheduledBy,
			Notes:         req.Notes,
		}
		if err := uc.bookingRepo.AddRescheduleEntry(txCtx, entry); err != nil {
			uc.logger.Error("RescheduleBooking: failed to add history entry: %v", err)
			return fmt.Errorf("%w: failed to add history entry: %v", ErrInternal, err)
		}

		// 2.6. Переносим бронирование
		if err := uc.bookingRepo.Reschedule(txCtx, booking.ID, req.ToDate, req.ToStartTime, req.RescheduledBy); err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				return ErrSlotTaken
			}
			uc.logger.Error("RescheduleBooking: failed to reschedule booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to reschedule booking: %v", ErrInternal, err)
		}

		result = &Response{
			ID:          booking.ID,
			BookingDate: req.ToDate,
			StartTime:   req.ToStartTime,
			Status:      string(domain.StatusConfirmed),
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("RescheduleBooking: booking id=%d moved to %s %s",
		result.ID, result.BookingDate.Format(domain.DateFormat), result.StartTime)
	return result, nil
}
