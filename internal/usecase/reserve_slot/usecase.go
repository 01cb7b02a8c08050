package reserve_slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
)

// UseCase use case удержания слота перед оплатой
type UseCase struct {
	reservationRepo ReservationRepository
	bookingRepo     BookingRepository
	txManager       TransactionManager
	timeProvider    TimeProvider
	ttl             time.Duration
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	ttlMinutes int,
	logger Logger,
) *UseCase {
	if ttlMinutes <= 0 {
		ttlMinutes = domain.DefaultReservationTTLMinutes
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		bookingRepo:     bookingRepo,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		ttl:             time.Duration(ttlMinutes) * time.Minute,
		logger:          logger,
	}
}

// Execute удерживает слот за bookingReference
// Вся проверка "слот свободен → записать удержание" выполняется в
// сериализуемой транзакции: из двух конкурентных запросов на один слот
// ровно один получает удержание, второй — ErrSlotReserved
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReserveSlot: date=%s, time=%s, reference=%s",
		req.Date.Format(domain.DateFormat), req.StartTime, req.BookingReference)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReserveSlot: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	if err := validateDate(req.Date, now); err != nil {
		uc.logger.Warn("ReserveSlot: date validation failed: %v", err)
		return nil, err
	}

	var result *Response

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Ленивый GC: физически удаляем истекшие удержания
		deleted, err := uc.reservationRepo.DeleteExpired(txCtx, now)
		if err != nil {
			uc.logger.Error("ReserveSlot: failed to delete expired reservations: %v", err)
			return fmt.Errorf("%w: failed to delete expired reservations: %v", ErrInternal, err)
		}
		if deleted > 0 {
			uc.logger.Info("ReserveSlot: garbage collected %d expired reservations", deleted)
		}

		// 3.2. Слот не должен быть занят подтвержденной записью
		bookings, err := uc.bookingRepo.GetConfirmedAtSlot(txCtx, req.Date, req.StartTime)
		if err != nil {
			uc.logger.Error("ReserveSlot: failed to get confirmed bookings: %v", err)
			return fmt.Errorf("%w: failed to get confirmed bookings: %v", ErrInternal, err)
		}
		if len(bookings) > 0 {
			uc.logger.Warn("ReserveSlot: slot %s %s already booked",
				req.Date.Format(domain.DateFormat), req.StartTime)
			return ErrSlotBooked
		}

		// 3.3. Проверяем существующее удержание слота
		existing, err := uc.reservationRepo.GetBySlot(txCtx, req.Date, req.StartTime)
		if err != nil && !errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Error("ReserveSlot: failed to get reservation: %v", err)
			return fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
		}

		expiresAt := now.Add(uc.ttl)

		if existing != nil {
			// Чужое активное удержание — конфликт
			if !existing.IsHeldBy(req.BookingReference) {
				uc.logger.Warn("ReserveSlot: slot %s %s held by another reference",
					req.Date.Format(domain.DateFormat), req.StartTime)
				return ErrSlotReserved
			}

			// Повторный claim тем же reference — идемпотентное продление
			if err := uc.reservationRepo.ExtendExpiry(txCtx, existing.ID, expiresAt); err != nil {
				uc.logger.Error("ReserveSlot: failed to extend reservation id=%d: %v", existing.ID, err)
				return fmt.Errorf("%w: failed to extend reservation: %v", ErrInternal, err)
			}

			uc.logger.Info("ReserveSlot: reservation id=%d renewed until %s",
				existing.ID, expiresAt.Format(time.RFC3339))
			result = &Response{Reserved: true, ExpiresAt: expiresAt}
			return nil
		}

		// 3.4. Слот свободен — создаем удержание
		created, err := uc.reservationRepo.Create(txCtx, &domain.SlotReservation{
			BookingReference: req.BookingReference,
			Date:             req.Date,
			StartTime:        req.StartTime,
			ReservedAt:       now,
			ExpiresAt:        expiresAt,
		})
		if err != nil {
			if errors.Is(err, reservationRepo.ErrSlotAlreadyReserved) {
				return ErrSlotReserved
			}
			uc.logger.Error("ReserveSlot: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		uc.logger.Info("ReserveSlot: reservation id=%d created until %s",
			created.ID, expiresAt.Format(time.RFC3339))
		result = &Response{Reserved: true, ExpiresAt: expiresAt}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}
