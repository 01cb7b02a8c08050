package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const uniqueViolationCode = "23505"

// bookingColumns полный список колонок таблицы bookings
var bookingColumns = []string{
	"id",
	"reference",
	"client_name",
	"client_email",
	"client_phone",
	"booking_date",
	"start_time",
	"service_id",
	"service_name",
	"original_price",
	"discount",
	"final_price",
	"deposit",
	"status",
	"payment_reference",
	"cancellation_reason",
	"cancelled_at",
	"cancelled_by",
	"refund_status",
	"refund_amount",
	"refund_notes",
	"rescheduled_at",
	"rescheduled_by",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает подтвержденное бронирование
// Частичный уникальный индекс (booking_date, start_time) WHERE status='confirmed'
// не допускает двойного бронирования даже при гонке вебхуков
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference",
			"client_name",
			"client_email",
			"client_phone",
			"booking_date",
			"start_time",
			"service_id",
			"service_name",
			"original_price",
			"discount",
			"final_price",
			"deposit",
			"status",
			"payment_reference",
			"refund_status",
		).
		Values(
			b.Reference,
			b.ClientName,
			b.ClientEmail,
			b.ClientPhone,
			b.BookingDate,
			b.StartTime,
			b.ServiceID,
			b.ServiceName,
			b.OriginalPrice,
			b.Discount,
			b.FinalPrice,
			b.Deposit,
			b.Status,
			b.PaymentReference,
			b.RefundStatus,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByPaymentReference получает бронирование по ссылке платежа
// Используется для идемпотентной обработки повторных вебхуков
func (r *Repository) GetByPaymentReference(ctx context.Context, paymentReference string) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"payment_reference": paymentReference})
}

// GetConfirmedAtSlot получает подтвержденные записи на слот
// Внутри транзакции строки блокируются (FOR UPDATE) для атомарной
// проверки доступности слота перед записью
func (r *Repository) GetConfirmedAtSlot(ctx context.Context, date time.Time, startTime types.TimeString) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"booking_date": date,
			"start_time":   startTime,
			"status":       domain.StatusConfirmed,
		})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetConfirmedAtSlot - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetConfirmedAtSlot - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetWithFilter получает бронирования с фильтрацией по периоду и статусу
func (r *Repository) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings")

	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": domain.StatusCancelled})
	}

	selectBuilder = selectBuilder.OrderBy("booking_date DESC, start_time DESC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// Cancel отменяет бронирование с фиксацией причины и решения по возврату
func (r *Repository) Cancel(
	ctx context.Context,
	id int64,
	reason string,
	cancelledBy string,
	refundStatus domain.RefundStatus,
	refundAmount *float64,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("cancelled_by", cancelledBy).
		Set("refund_status", refundStatus).
		Set("refund_amount", refundAmount).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, "Cancel", query, args)
}

// Complete помечает бронирование завершенным
func (r *Repository) Complete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCompleted).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Complete - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, "Complete", query, args)
}

// Reschedule переносит бронирование на новый слот
// Уникальный индекс подтвержденных записей страхует проверку в usecase
func (r *Repository) Reschedule(
	ctx context.Context,
	id int64,
	toDate time.Time,
	toStartTime types.TimeString,
	rescheduledBy string,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("booking_date", toDate).
		Set("start_time", toStartTime).
		Set("rescheduled_at", squirrel.Expr("NOW()")).
		Set("rescheduled_by", rescheduledBy).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Reschedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("%w: Reschedule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Reschedule - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// AddRescheduleEntry добавляет запись в историю переносов
func (r *Repository) AddRescheduleEntry(ctx context.Context, entry *domain.RescheduleEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_reschedule_history").
		Columns(
			"booking_id",
			"from_date",
			"from_start_time",
			"to_date",
			"to_start_time",
			"rescheduled_at",
			"rescheduled_by",
			"notes",
		).
		Values(
			entry.BookingID,
			entry.FromDate,
			entry.FromStartTime,
			entry.ToDate,
			entry.ToStartTime,
			entry.RescheduledAt,
			entry.RescheduledBy,
			entry.Notes,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AddRescheduleEntry - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("%w: AddRescheduleEntry - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetRescheduleHistory получает историю переносов бронирования (от старых к новым)
func (r *Repository) GetRescheduleHistory(ctx context.Context, bookingID int64) ([]*domain.RescheduleEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"from_date",
		"from_start_time",
		"to_date",
		"to_start_time",
		"rescheduled_at",
		"rescheduled_by",
		"notes",
	).
		From("booking_reschedule_history").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("rescheduled_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetRescheduleHistory - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetRescheduleHistory - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.RescheduleEntry, 0)
	for rows.Next() {
		var entry domain.RescheduleEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.BookingID,
			&entry.FromDate,
			&entry.FromStartTime,
			&entry.ToDate,
			&entry.ToStartTime,
			&entry.RescheduledAt,
			&entry.RescheduledBy,
			&entry.Notes,
		); err != nil {
			return nil, fmt.Errorf("%w: GetRescheduleHistory - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetRescheduleHistory - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

// DeleteAll удаляет все бронирования и историю переносов
// Используется только явной админской операцией полной очистки
func (r *Repository) DeleteAll(ctx context.Context) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "DELETE FROM booking_reschedule_history"); err != nil {
		return fmt.Errorf("%w: DeleteAll - delete history: %v", ErrExecQuery, err)
	}
	if _, err := executor.ExecContext(ctx, "DELETE FROM bookings"); err != nil {
		return fmt.Errorf("%w: DeleteAll - delete bookings: %v", ErrExecQuery, err)
	}

	return nil
}

// getOne получает одно бронирование по условию
func (r *Repository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getOne - build select query: %v", ErrBuildQuery, err)
	}

	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ID,
		&b.Reference,
		&b.ClientName,
		&b.ClientEmail,
		&b.ClientPhone,
		&b.BookingDate,
		&b.StartTime,
		&b.ServiceID,
		&b.ServiceName,
		&b.OriginalPrice,
		&b.Discount,
		&b.FinalPrice,
		&b.Deposit,
		&b.Status,
		&b.PaymentReference,
		&b.CancellationReason,
		&b.CancelledAt,
		&b.CancelledBy,
		&b.RefundStatus,
		&b.RefundAmount,
		&b.RefundNotes,
		&b.RescheduledAt,
		&b.RescheduledBy,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - scan booking: %v", ErrScanRow, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// execExpectingRow выполняет update, требуя ровно одну затронутую строку
func (r *Repository) execExpectingRow(ctx context.Context, executor DBExecutor, method, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var b domain.Booking
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&b.ID,
			&b.Reference,
			&b.ClientName,
			&b.ClientEmail,
			&b.ClientPhone,
			&b.BookingDate,
			&b.StartTime,
			&b.ServiceID,
			&b.ServiceName,
			&b.OriginalPrice,
			&b.Discount,
			&b.FinalPrice,
			&b.Deposit,
			&b.Status,
			&b.PaymentReference,
			&b.CancellationReason,
			&b.CancelledAt,
			&b.CancelledBy,
			&b.RefundStatus,
			&b.RefundAmount,
			&b.RefundNotes,
			&b.RescheduledAt,
			&b.RescheduledBy,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}

		b.CreatedAt = createdAt.Time
		b.UpdatedAt = updatedAt.Time

		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// isUniqueViolation распознает нарушение уникального ограничения PostgreSQL
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}
