package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	gateway "github.com/m04kA/SMC-AppointmentService/internal/integrations/paymentgateway"
)

// UseCase use case создания подтвержденного бронирования после оплаты
type UseCase struct {
	bookingRepo     BookingRepository
	reservationRepo ReservationRepository
	gatewayClient   GatewayClient
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	reservationRepo ReservationRepository,
	gatewayClient GatewayClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:     bookingRepo,
		reservationRepo: reservationRepo,
		gatewayClient:   gatewayClient,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute создает подтвержденное бронирование
// Вызывается из обработчика платежного webhook'а; повторная доставка
// webhook'а с тем же paymentReference возвращает уже созданную запись
// (идемпотентность), а гонка двух webhook'ов за один слот разрешается
// сериализуемой транзакцией и уникальным индексом подтвержденных записей
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: reference=%s, payment=%s, date=%s, time=%s",
		req.Reference, req.PaymentReference, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем платеж в шлюзе — webhook'у на слово не верим
	tx, err := uc.gatewayClient.VerifyTransaction(ctx, req.PaymentReference)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayUnavailable) {
			uc.logger.Error("CreateBooking: gateway unavailable for payment=%s: %v", req.PaymentReference, err)
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		uc.logger.Error("CreateBooking: failed to verify payment=%s: %v", req.PaymentReference, err)
		return nil, fmt.Errorf("%w: failed to verify transaction: %v", ErrInternal, err)
	}
	if !tx.IsSuccessful() {
		uc.logger.Warn("CreateBooking: payment=%s not successful, status=%s", req.PaymentReference, tx.Status)
		return nil, ErrPaymentNotVerified
	}

	var result *domain.Booking

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Идемпотентность: повторный webhook с тем же платежом
		existing, err := uc.bookingRepo.GetByPaymentReference(txCtx, req.PaymentReference)
		if err != nil && !errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Error("CreateBooking: failed to check payment reference: %v", err)
			return fmt.Errorf("%w: failed to check payment reference: %v", ErrInternal, err)
		}
		if existing != nil {
			uc.logger.Info("CreateBooking: duplicate webhook, booking id=%d already exists", existing.ID)
			result = existing
			return nil
		}

		// 3.2. Проверяем доступность слота среди подтвержденных записей
		bookings, err := uc.bookingRepo.GetConfirmedAtSlot(txCtx, req.Date, req.StartTime)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get confirmed bookings: %v", err)
			return fmt.Errorf("%w: failed to get confirmed bookings: %v", ErrInternal, err)
		}
		if len(bookings) > 0 {
			uc.logger.Warn("CreateBooking: slot %s %s already taken",
				req.Date.Format(domain.DateFormat), req.StartTime)
			return ErrSlotTaken
		}

		// 3.3. Создаем подтвержденное бронирование
		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			Reference:        req.Reference,
			ClientName:       req.ClientName,
			ClientEmail:      req.ClientEmail,
			ClientPhone:      req.ClientPhone,
			BookingDate:      req.Date,
			StartTime:        req.StartTime,
			ServiceID:        req.ServiceID,
			ServiceName:      req.ServiceName,
			OriginalPrice:    req.OriginalPrice,
			Discount:         req.Discount,
			FinalPrice:       req.FinalPrice,
			Deposit:          req.Deposit,
			Status:           domain.StatusConfirmed,
			PaymentReference: &req.PaymentReference,
			RefundStatus:     domain.RefundNone,
		})
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				return ErrSlotTaken
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 3.4. Удержание больше не нужно — бронирование заняло слот
		if err := uc.reservationRepo.DeleteByReference(txCtx, req.Reference); err != nil {
			uc.logger.Error("CreateBooking: failed to release reservation for reference=%s: %v",
				req.Reference, err)
			return fmt.Errorf("%w: failed to release reservation: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: booking id=%d confirmed for reference=%s", result.ID, result.Reference)

	return &Response{
		ID:          result.ID,
		Reference:   result.Reference,
		BookingDate: result.BookingDate,
		StartTime:   result.StartTime,
		Status:      string(result.Status),
		CreatedAt:   result.CreatedAt,
	}, nil
}
