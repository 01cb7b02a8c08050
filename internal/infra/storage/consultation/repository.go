package consultation

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

var consultationColumns = []string{
	"id",
	"client_name",
	"client_email",
	"client_phone",
	"consultation_date",
	"project_brief",
	"status",
	"admin_decision",
	"admin_decision_at",
	"decision_notes",
	"contract_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий консультаций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория консультаций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает консультацию в статусе pending
func (r *Repository) Create(ctx context.Context, c *domain.Consultation) (*domain.Consultation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("consultations").
		Columns(
			"client_name",
			"client_email",
			"client_phone",
			"consultation_date",
			"project_brief",
			"status",
		).
		Values(
			c.ClientName,
			c.ClientEmail,
			c.ClientPhone,
			c.ConsultationDate,
			c.ProjectBrief,
			c.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return c, nil
}

// GetByID получает консультацию по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Consultation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(consultationColumns...).
		From("consultations").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.Consultation
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.ClientName,
		&c.ClientEmail,
		&c.ClientPhone,
		&c.ConsultationDate,
		&c.ProjectBrief,
		&c.Status,
		&c.AdminDecision,
		&c.AdminDecisionAt,
		&c.DecisionNotes,
		&c.ContractID,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConsultationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan consultation: %v", ErrScanRow, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

// RecordDecision записывает решение по консультации
// Условие admin_decision IS NULL делает запись однократной:
// повторная попытка не затрагивает строк и возвращает ErrAlreadyDecided
func (r *Repository) RecordDecision(
	ctx context.Context,
	id int64,
	decision domain.AdminDecision,
	status domain.ConsultationStatus,
	decidedAt time.Time,
	notes *string,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("consultations").
		Set("admin_decision", decision).
		Set("status", status).
		Set("admin_decision_at", decidedAt).
		Set("decision_notes", notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where("admin_decision IS NULL").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: RecordDecision - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: RecordDecision - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: RecordDecision - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Либо консультации нет, либо решение уже записано
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return ErrConsultationNotFound
		}
		return ErrAlreadyDecided
	}

	return nil
}

// SetContractID привязывает созданный договор к консультации
func (r *Repository) SetContractID(ctx context.Context, id int64, contractID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("consultations").
		Set("contract_id", contractID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetContractID - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetContractID - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetContractID - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrConsultationNotFound
	}

	return nil
}
