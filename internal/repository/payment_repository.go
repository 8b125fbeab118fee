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

const paymentColumns = `id, tenant_id, grant_id, applicant_id, amount, payment_method, payment_date, status, notes,
	proof_file_name, proof_url, proof_stored_name, recorded_by, created_at, updated_at`

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.PaymentRecord) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.PaymentRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
	ListByGrant(ctx context.Context, grantID uuid.UUID) ([]domain.PaymentRecord, error)
	ListForExport(ctx context.Context, tenantID uuid.UUID) ([]domain.PaymentExportRow, error)
	SumCompleted(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
}

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	query := `
		INSERT INTO payments (id, tenant_id, grant_id, applicant_id, amount, payment_method, payment_date, status, notes,
			proof_file_name, proof_url, proof_stored_name, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		p.ID, p.TenantID, p.GrantID, p.ApplicantID, p.Amount, p.PaymentMethod, p.PaymentDate, p.Status, p.Notes,
		p.ProofFileName, p.ProofURL, p.ProofStored, p.RecordedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *paymentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.PaymentRecord, error) {
	var payment domain.PaymentRecord
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, conn(ctx, r.db), &payment, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatus is the only mutation a recorded payment allows.
func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *paymentRepository) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]domain.PaymentRecord, error) {
	var payments []domain.PaymentRecord
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE grant_id = $1 ORDER BY payment_date DESC, created_at DESC`
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &payments, query, grantID)
	return payments, err
}

func (r *paymentRepository) ListForExport(ctx context.Context, tenantID uuid.UUID) ([]domain.PaymentExportRow, error) {
	query, args, err := psql().
		Select(
			"a.case_id",
			"a.first_name || ' ' || a.last_name AS applicant_name",
			"p.amount",
			"p.payment_method",
			"p.payment_date",
			"p.status",
			"COALESCE(u.full_name, '') AS recorded_by_name",
		).
		From("payments p").
		Join("applicants a ON a.id = p.applicant_id").
		LeftJoin("users u ON u.id = p.recorded_by").
		Where("p.tenant_id = ?", tenantID).
		OrderBy("p.payment_date DESC", "p.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []domain.PaymentExportRow
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...)
	return rows, err
}

func (r *paymentRepository) SumCompleted(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE tenant_id = $1 AND status = 'completed'`
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &total, query, tenantID)
	return total, err
}
