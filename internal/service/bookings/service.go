package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	refundPolicy domain.RefundPolicy
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	refundPolicy domain.RefundPolicy,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		refundPolicy: refundPolicy,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByID получает бронирование по ID вместе с историей переносов
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	history, err := s.bookingRepo.GetRescheduleHistory(ctx, id)
	if err != nil {
		s.logger.Error("GetByID: failed to get reschedule history for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - failed to get reschedule history: %v", ErrInternal, err)
	}

	resp := models.FromDomainBooking(booking)
	resp.RescheduleHistory = models.FromDomainRescheduleHistory(history)

	return resp, nil
}

// List получает бронирования с фильтрацией по периоду и статусу
// По умолчанию отмененные записи не включаются
func (s *Service) List(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("List: fetching bookings, status=%v, includeInactive=%v", req.Status, req.IncludeInactive)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidStatus)
	}

	bookings, err := s.bookingRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d bookings", len(bookings))
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование и назначает решение по возврату средств.
// Решение определяется политикой возврата на момент отмены: при отмене
// менее чем за cutoff часов до начала возврат не положен. Отмена
// выполняется в транзакции, повторная отмена возвращает ErrCannotCancel
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.CancelBookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by %s", bookingID, req.CancelledBy)

	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.CancelledBy) == "" {
		return nil, fmt.Errorf("%w: cancelledBy is required", ErrInvalidInput)
	}

	now := s.timeProvider.Now()

	var result *models.CancelBookingResponse

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				s.logger.Warn("Cancel: booking id=%d not found", bookingID)
				return ErrBookingNotFound
			}
			s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
			return ErrCannotCancel
		}

		refundStatus, refundAmount := s.refundPolicy.Evaluate(booking, now)

		var refundAmountPtr *float64
		if refundStatus == domain.RefundPending {
			refundAmountPtr = &refundAmount
		}

		if err := s.bookingRepo.Cancel(txCtx, bookingID, req.Reason, req.CancelledBy, refundStatus, refundAmountPtr); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			s.logger.Error("Cancel: failed to cancel booking id=%d: %v", bookingID, err)
			return fmt.Errorf("%w: Cancel - failed to cancel: %v", ErrInternal, err)
		}

		result = &models.CancelBookingResponse{
			ID:           bookingID,
			Status:       string(domain.StatusCancelled),
			RefundStatus: string(refundStatus),
			RefundAmount: refundAmountPtr,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: booking id=%d cancelled, refund=%s", bookingID, result.RefundStatus)
	return result, nil
}

// Complete помечает бронирование завершенным (оказанная услуга)
func (s *Service) Complete(ctx context.Context, bookingID int64) error {
	s.logger.Info("Complete: completing booking id=%d", bookingID)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				s.logger.Warn("Complete: booking id=%d not found", bookingID)
				return ErrBookingNotFound
			}
			s.logger.Error("Complete: repository error for booking id=%d: %v", bookingID, err)
			return fmt.Errorf("%w: Complete - repository error: %v", ErrInternal, err)
		}

		if !booking.CanBeCompleted() {
			s.logger.Warn("Complete: booking id=%d cannot be completed, status=%s", bookingID, booking.Status)
			return ErrCannotComplete
		}

		if err := s.bookingRepo.Complete(txCtx, bookingID); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			s.logger.Error("Complete: failed to complete booking id=%d: %v", bookingID, err)
			return fmt.Errorf("%w: Complete - failed to complete: %v", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.logger.Info("Complete: booking id=%d completed", bookingID)
	return nil
}

// ClearAll физически удаляет все бронирования вместе с историей переносов.
// Единственная операция, которая удаляет записи вместо смены статуса
func (s *Service) ClearAll(ctx context.Context) error {
	s.logger.Warn("ClearAll: deleting all bookings")

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := s.bookingRepo.DeleteAll(txCtx); err != nil {
			s.logger.Error("ClearAll: failed to delete bookings: %v", err)
			return fmt.Errorf("%w: ClearAll - failed to delete bookings: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("ClearAll: all bookings deleted")
	return nil
}
