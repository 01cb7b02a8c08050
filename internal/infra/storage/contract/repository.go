package contract

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

const uniqueViolationCode = "23505"

var contractColumns = []string{
	"id",
	"consultation_id",
	"token",
	"project_cost",
	"terms",
	"status",
	"signed_at",
	"signed_by_name",
	"signature_data",
	"signature_type",
	"signer_ip",
	"created_at",
	"updated_at",
}

// Repository репозиторий договоров
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория договоров
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает договор в статусе pending
// Уникальность consultation_id не допускает второго договора по одной консультации
func (r *Repository) Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	termsJSON, err := json.Marshal(c.Terms)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - marshal terms: %v", ErrBuildQuery, err)
	}

	query, args, err := psqlbuilder.Insert("contracts").
		Columns(
			"consultation_id",
			"token",
			"project_cost",
			"terms",
			"status",
		).
		Values(
			c.ConsultationID,
			c.Token,
			c.ProjectCost,
			termsJSON,
			c.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrContractExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return c, nil
}

// GetByToken получает договор по публичному токену
// Внутри транзакции строка блокируется (FOR UPDATE), чтобы двойное
// нажатие "подписать" сериализовалось
func (r *Repository) GetByToken(ctx context.Context, token string) (*domain.Contract, error) {
	return r.getOne(ctx, squirrel.Eq{"token": token})
}

// GetByID получает договор по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByConsultationID получает договор по ID консультации
func (r *Repository) GetByConsultationID(ctx context.Context, consultationID int64) (*domain.Contract, error) {
	return r.getOne(ctx, squirrel.Eq{"consultation_id": consultationID})
}

// MarkSigned переводит договор pending → signed с фиксацией подписи
// Условие status='pending' гарантирует монотонность перехода
func (r *Repository) MarkSigned(
	ctx context.Context,
	id int64,
	signedAt time.Time,
	signedByName, signatureData, signatureType string,
	signerIP *string,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("contracts").
		Set("status", domain.ContractSigned).
		Set("signed_at", signedAt).
		Set("signed_by_name", signedByName).
		Set("signature_data", signatureData).
		Set("signature_type", signatureType).
		Set("signer_ip", signerIP).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.ContractPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkSigned - build update query: %v", ErrBuildQuery, err)
	}

	return r.execTransition(ctx, executor, "MarkSigned", id, query, args)
}

// MarkExpired переводит договор pending → expired
// Подписанный договор условие не затронет — истечение никогда
// не перезаписывает подпись
func (r *Repository) MarkExpired(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("contracts").
		Set("status", domain.ContractExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.ContractPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkExpired - build update query: %v", ErrBuildQuery, err)
	}

	return r.execTransition(ctx, executor, "MarkExpired", id, query, args)
}

// ListPendingCreatedBefore получает pending-договоры, созданные раньше cutoff
// Используется идемпотентным sweep'ом просроченных договоров
func (r *Repository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(contractColumns...).
		From("contracts").
		Where(squirrel.Eq{"status": domain.ContractPending}).
		Where(squirrel.LtOrEq{"created_at": cutoff}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingCreatedBefore - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingCreatedBefore - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	contracts := make([]*domain.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListPendingCreatedBefore - rows error: %v", ErrScanRow, err)
	}

	return contracts, nil
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(contractColumns...).
		From("contracts").
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.Contract
	var termsJSON []byte
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.ConsultationID,
		&c.Token,
		&c.ProjectCost,
		&termsJSON,
		&c.Status,
		&c.SignedAt,
		&c.SignedByName,
		&c.SignatureData,
		&c.SignatureType,
		&c.SignerIP,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - scan contract: %v", ErrScanRow, err)
	}

	if err := json.Unmarshal(termsJSON, &c.Terms); err != nil {
		return nil, fmt.Errorf("%w: getOne - unmarshal terms: %v", ErrScanRow, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

// execTransition выполняет переход статуса, требуя ровно одну затронутую строку
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
		// Либо договора нет, либо он уже не в статусе pending
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrContractNotFound) {
			return ErrContractNotFound
		}
		return ErrStatusNotPending
	}

	return nil
}

func scanContract(rows *sql.Rows) (*domain.Contract, error) {
	var c domain.Contract
	var termsJSON []byte
	var createdAt, updatedAt sql.NullTime

	err := rows.Scan(
		&c.ID,
		&c.ConsultationID,
		&c.Token,
		&c.ProjectCost,
		&termsJSON,
		&c.Status,
		&c.SignedAt,
		&c.SignedByName,
		&c.SignatureData,
		&c.SignatureType,
		&c.SignerIP,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scanContract - scan row: %v", ErrScanRow, err)
	}

	if err := json.Unmarshal(termsJSON, &c.Terms); err != nil {
		return nil, fmt.Errorf("%w: scanContract - unmarshal terms: %v", ErrScanRow, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}
