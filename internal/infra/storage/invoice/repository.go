package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

var invoiceColumns = []string{
	"id",
	"contract_id",
	"consultation_id",
	"number",
	"type",
	"amount",
	"issue_date",
	"due_date",
	"expiry_date",
	"status",
	"payment_reference",
	"paid_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий счетов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория счетов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает счет
func (r *Repository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("invoices").
		Columns(
			"contract_id",
			"consultation_id",
			"number",
			"type",
			"amount",
			"issue_date",
			"due_date",
			"expiry_date",
			"status",
		).
		Values(
			inv.ContractID,
			inv.ConsultationID,
			inv.Number,
			inv.Type,
			inv.Amount,
			inv.IssueDate,
			inv.DueDate,
			inv.ExpiryDate,
			inv.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&inv.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	return inv, nil
}

// GetByID получает счет по ID
// Внутри транзакции строка блокируется (FOR UPDATE), чтобы двойная
// отметка оплаты сериализовалась
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	inv, err := r.scanOne(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// GetByContractID получает все счета по договору (от старых к новым)
func (r *Repository) GetByContractID(ctx context.Context, contractID int64) ([]*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(squirrel.Eq{"contract_id": contractID}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByContractID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByContractID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

// SumPaidByContract возвращает сумму оплаченных счетов по договору
// Используется при расчете финального счета (остаток = стоимость - оплачено)
func (r *Repository) SumPaidByContract(ctx context.Context, contractID int64) (float64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(amount), 0)").
		From("invoices").
		Where(squirrel.Eq{"contract_id": contractID, "status": domain.InvoicePaid}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: SumPaidByContract - build select query: %v", ErrBuildQuery, err)
	}

	var sum float64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: SumPaidByContract - scan sum: %v", ErrScanRow, err)
	}

	return sum, nil
}

// MarkPaid переводит счет в статус paid
// Условие по статусу не дает оплатить просроченный или отмененный счет
// и делает повторную отметку оплаты безопасной
func (r *Repository) MarkPaid(ctx context.Context, id int64, paymentReference string, paidAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("invoices").
		Set("status", domain.InvoicePaid).
		Set("payment_reference", paymentReference).
		Set("paid_at", paidAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": []domain.InvoiceStatus{domain.InvoiceDraft, domain.InvoiceSent}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkPaid - build update query: %v", ErrBuildQuery, err)
	}

	return r.execTransition(ctx, executor, "MarkPaid", id, query, args)
}

// MarkExpired переводит счет sent → expired
// Оплаченные и отмененные счета условие не затронет: поглощающие
// состояния никогда не перезаписываются проверкой истечения
func (r *Repository) MarkExpired(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("invoices").
		Set("status", domain.InvoiceExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.InvoiceSent}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkExpired - build update query: %v", ErrBuildQuery, err)
	}

	return r.execTransition(ctx, executor, "MarkExpired", id, query, args)
}

// ListExpirable получает отправленные счета с истекшим expiry_date
// Используется идемпотентным sweep'ом: терминальные статусы не выбираются
func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(squirrel.Eq{"status": domain.InvoiceSent}).
		Where(squirrel.Lt{"expiry_date": now}).
		OrderBy("expiry_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpirable - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpirable - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

func (r *Repository) execTransition(ctx context.Context, executor DBExecutor, method string, id int64, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrInvoiceNotFound) {
			return ErrInvoiceNotFound
		}
		return ErrInvalidTransition
	}

	return nil
}

func (r *Repository) scanOne(row *sql.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.ContractID,
		&inv.ConsultationID,
		&inv.Number,
		&inv.Type,
		&inv.Amount,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.ExpiryDate,
		&inv.Status,
		&inv.PaymentReference,
		&inv.PaidAt,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanOne - scan invoice: %v", ErrScanRow, err)
	}

	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	return &inv, nil
}

func (r *Repository) scanInvoices(rows *sql.Rows) ([]*domain.Invoice, error) {
	invoices := make([]*domain.Invoice, 0)

	for rows.Next() {
		var inv domain.Invoice
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&inv.ID,
			&inv.ContractID,
			&inv.ConsultationID,
			&inv.Number,
			&inv.Type,
			&inv.Amount,
			&inv.IssueDate,
			&inv.DueDate,
			&inv.ExpiryDate,
			&inv.Status,
			&inv.PaymentReference,
			&inv.PaidAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanInvoices - scan row: %v", ErrScanRow, err)
		}

		inv.CreatedAt = createdAt.Time
		inv.UpdatedAt = updatedAt.Time

		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanInvoices - rows error: %v", ErrScanRow, err)
	}

	return invoices, nil
}
