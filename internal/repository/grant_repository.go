package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"rahmah-exchange/internal/domain"
)

const grantColumns = `id, tenant_id, applicant_id, granted_amount, number_of_months, remarks, status,
	created_by, updated_by, created_at, updated_at`

type GrantRepository interface {
	Create(ctx context.Context, grant *domain.Grant) error
	Update(ctx context.Context, grant *domain.Grant) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Grant, error)
	GetByApplicant(ctx context.Context, applicantID uuid.UUID) (*domain.Grant, error)
	ListForExport(ctx context.Context, tenantID uuid.UUID) ([]domain.GrantExportRow, error)
	SumApproved(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
}

type grantRepository struct {
	db *sqlx.DB
}

func NewGrantRepository(db *sqlx.DB) GrantRepository {
	return &grantRepository{db: db}
}

func (r *grantRepository) Create(ctx context.Context, g *domain.Grant) error {
	query := `
		INSERT INTO grants (id, tenant_id, applicant_id, granted_amount, number_of_months, remarks, status, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		g.ID, g.TenantID, g.ApplicantID, g.GrantedAmount, g.NumberOfMonths, g.Remarks, g.Status, g.CreatedBy, g.UpdatedBy,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *grantRepository) Update(ctx context.Context, g *domain.Grant) error {
	query := `
		UPDATE grants
		SET granted_amount = $2, number_of_months = $3, remarks = $4, status = $5, updated_by = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		g.ID, g.GrantedAmount, g.NumberOfMonths, g.Remarks, g.Status, g.UpdatedBy,
	).Scan(&g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *grantRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Grant, error) {
	var grant domain.Grant
	query := `SELECT ` + grantColumns + ` FROM grants WHERE id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, conn(ctx, r.db), &grant, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// GetByApplicant returns the most recently updated grant of a case. Cases
// carry at most one grant by convention, not by constraint.
func (r *grantRepository) GetByApplicant(ctx context.Context, applicantID uuid.UUID) (*domain.Grant, error) {
	var grant domain.Grant
	query := `SELECT ` + grantColumns + ` FROM grants WHERE applicant_id = $1 ORDER BY updated_at DESC LIMIT 1`

	err := sqlx.GetContext(ctx, conn(ctx, r.db), &grant, query, applicantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *grantRepository) ListForExport(ctx context.Context, tenantID uuid.UUID) ([]domain.GrantExportRow, error) {
	query, args, err := psql().
		Select(
			"a.case_id",
			"a.first_name || ' ' || a.last_name AS applicant_name",
			"g.granted_amount",
			"g.number_of_months",
			"g.status",
			"COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'completed'), 0) AS total_paid",
			"g.updated_at",
		).
		From("grants g").
		Join("applicants a ON a.id = g.applicant_id").
		LeftJoin("payments p ON p.grant_id = g.id").
		Where("g.tenant_id = ?", tenantID).
		GroupBy("g.id", "a.case_id", "a.first_name", "a.last_name").
		OrderBy("g.updated_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []domain.GrantExportRow
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...)
	return rows, err
}

func (r *grantRepository) SumApproved(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(granted_amount), 0) FROM grants WHERE tenant_id = $1 AND status = 'Approved'`
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &total, query, tenantID)
	return total, err
}
