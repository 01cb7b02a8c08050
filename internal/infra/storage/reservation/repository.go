package reservation

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

// uniqueViolationCode код ошибки PostgreSQL при нарушении уникальности
const uniqueViolationCode = "23505"

// Repository репозиторий удержаний слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория удержаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetBySlot получает удержание для слота (дата + время), включая истекшее
// Внутри транзакции строка блокируется (FOR UPDATE), чтобы конкурентные
// запросы на тот же слот сериализовались
func (r *Repository) GetBySlot(ctx context.Context, date time.Time, startTime types.TimeString) (*domain.SlotReservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"booking_reference",
		"booking_date",
		"start_time",
		"reserved_at",
		"expires_at",
	).
		From("slot_reservations").
		Where(squirrel.Eq{"booking_date": date, "start_time": startTime})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySlot - build select query: %v", ErrBuildQuery, err)
	}

	var res domain.SlotReservation
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&res.BookingReference,
		&res.Date,
		&res.StartTime,
		&res.ReservedAt,
		&res.ExpiresAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySlot - scan reservation: %v", ErrScanRow, err)
	}

	return &res, nil
}

// Create создает удержание слота
// При гонке за один слот второй INSERT падает на уникальном индексе
// и возвращает ErrSlotAlreadyReserved
func (r *Repository) Create(ctx context.Context, res *domain.SlotReservation) (*domain.SlotReservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slot_reservations").
		Columns(
			"booking_reference",
			"booking_date",
			"start_time",
			"reserved_at",
			"expires_at",
		).
		Values(
			res.BookingReference,
			res.Date,
			res.StartTime,
			res.ReservedAt,
			res.ExpiresAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotAlreadyReserved
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return res, nil
}

// ExtendExpiry продлевает срок действия удержания (идемпотентный повторный claim)
func (r *Repository) ExtendExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slot_reservations").
		Set("expires_at", expiresAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: ExtendExpiry - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: ExtendExpiry - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: ExtendExpiry - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// DeleteExpired физически удаляет все истекшие удержания
// Вызывается при каждой записи — это и есть ленивый GC, фонового sweep нет
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_reservations").
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - execute delete: %v", ErrExecQuery, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - get rows affected: %v", ErrExecQuery, err)
	}

	return deleted, nil
}

// DeleteByReference удаляет удержание по ссылке бронирования
// Вызывается после создания подтвержденной записи: слот больше не требует удержания
func (r *Repository) DeleteByReference(ctx context.Context, reference string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_reservations").
		Where(squirrel.Eq{"booking_reference": reference}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: DeleteByReference - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: DeleteByReference - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// GetActiveByDate получает активные удержания на дату
// Используется при расчете доступных слотов
func (r *Repository) GetActiveByDate(ctx context.Context, date time.Time, now time.Time) ([]*domain.SlotReservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_reference",
		"booking_date",
		"start_time",
		"reserved_at",
		"expires_at",
	).
		From("slot_reservations").
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	reservations := make([]*domain.SlotReservation, 0)
	for rows.Next() {
		var res domain.SlotReservation
		if err := rows.Scan(
			&res.ID,
			&res.BookingReference,
			&res.Date,
			&res.StartTime,
			&res.ReservedAt,
			&res.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetActiveByDate - scan row: %v", ErrScanRow, err)
		}
		reservations = append(reservations, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetActiveByDate - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

// isUniqueViolation распознает нарушение уникального ограничения PostgreSQL
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}
