package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

var applicantColumns = []string{
	"id", "tenant_id", "case_id", "status",
	"first_name", "last_name", "email", "phone", "street_address", "city", "state", "zip_code",
	"date_of_birth", "gender", "marital_status", "household_size", "dependents",
	"employment_status", "employer_name", "monthly_income", "monthly_expenses", "total_debt",
	"request_type", "request_amount", "request_reason", "reference_name", "reference_phone",
	"is_old_case", "magic_token_hash", "magic_token_expires_at", "created_at", "updated_at",
}

type ApplicantRepository interface {
	Create(ctx context.Context, applicant *domain.Applicant) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Applicant, error)
	GetByCaseID(ctx context.Context, tenantID uuid.UUID, caseID string) (*domain.Applicant, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Applicant, error)
	GetByMagicTokenHash(ctx context.Context, tokenHash string) (*domain.Applicant, error)
	ExistsByCaseID(ctx context.Context, caseID string) (bool, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, columns map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus) error
	SetMagicToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	List(ctx context.Context, tenantID uuid.UUID, filter domain.ApplicantFilter, params domain.PaginationParams) ([]domain.Applicant, int64, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.CaseStatus]int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type applicantRepository struct {
	db *sqlx.DB
}

func NewApplicantRepository(db *sqlx.DB) ApplicantRepository {
	return &applicantRepository{db: db}
}

func (r *applicantRepository) Create(ctx context.Context, a *domain.Applicant) error {
	query := `
		INSERT INTO applicants (
			id, tenant_id, case_id, status, first_name, last_name, email, phone,
			street_address, city, state, zip_code, date_of_birth, gender, marital_status,
			household_size, dependents, employment_status, employer_name, monthly_income,
			monthly_expenses, total_debt, request_type, request_amount, request_reason,
			reference_name, reference_phone, is_old_case
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		RETURNING created_at, updated_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		a.ID, a.TenantID, a.CaseID, a.Status, a.FirstName, a.LastName, a.Email, a.Phone,
		a.StreetAddress, a.City, a.State, a.ZipCode, a.DateOfBirth, a.Gender, a.MaritalStatus,
		a.HouseholdSize, a.Dependents, a.EmploymentStatus, a.EmployerName, a.MonthlyIncome,
		a.MonthlyExpenses, a.TotalDebt, a.RequestType, a.RequestAmount, a.RequestReason,
		a.ReferenceName, a.ReferencePhone, a.IsOldCase,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *applicantRepository) getOne(ctx context.Context, where sq.Sqlizer) (*domain.Applicant, error) {
	query, args, err := psql().Select(applicantColumns...).From("applicants").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	var applicant domain.Applicant
	err = sqlx.GetContext(ctx, conn(ctx, r.db), &applicant, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &applicant, nil
}

func (r *applicantRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Applicant, error) {
	return r.getOne(ctx, sq.Eq{"id": id, "tenant_id": tenantID})
}

func (r *applicantRepository) GetByCaseID(ctx context.Context, tenantID uuid.UUID, caseID string) (*domain.Applicant, error) {
	return r.getOne(ctx, sq.Eq{"case_id": caseID, "tenant_id": tenantID})
}

func (r *applicantRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Applicant, error) {
	return r.getOne(ctx, sq.And{
		sq.Eq{"tenant_id": tenantID},
		sq.Expr("lower(email) = ?", strings.ToLower(email)),
	})
}

func (r *applicantRepository) GetByMagicTokenHash(ctx context.Context, tokenHash string) (*domain.Applicant, error) {
	return r.getOne(ctx, sq.And{
		sq.Eq{"magic_token_hash": tokenHash},
		sq.Expr("magic_token_expires_at > NOW()"),
	})
}

func (r *applicantRepository) ExistsByCaseID(ctx context.Context, caseID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM applicants WHERE case_id = $1)`
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &exists, query, caseID)
	return exists, err
}

func (r *applicantRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM applicants WHERE tenant_id = $1 AND lower(email) = $2)`
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &exists, query, tenantID, strings.ToLower(email))
	return exists, err
}

func (r *applicantRepository) UpdateFields(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}

	query, args, err := psql().
		Update("applicants").
		SetMap(columns).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *applicantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus) error {
	query := `UPDATE applicants SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *applicantRepository) SetMagicToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE applicants SET magic_token_hash = $2, magic_token_expires_at = $3 WHERE id = $1`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, id, tokenHash, expiresAt)
	return err
}

func (r *applicantRepository) List(ctx context.Context, tenantID uuid.UUID, filter domain.ApplicantFilter, params domain.PaginationParams) ([]domain.Applicant, int64, error) {
	params.Validate()

	where := sq.And{sq.Eq{"tenant_id": tenantID}}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		where = append(where, sq.Or{
			sq.Expr("lower(first_name || ' ' || last_name) LIKE ?", pattern),
			sq.Expr("lower(email) LIKE ?", pattern),
			sq.Expr("lower(case_id) LIKE ?", pattern),
		})
	}

	countQuery, countArgs, err := psql().Select("COUNT(*)").From("applicants").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query, args, err := psql().
		Select(applicantColumns...).
		From("applicants").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(params.PageSize)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var applicants []domain.Applicant
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &applicants, query, args...)
	return applicants, total, err
}

func (r *applicantRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.CaseStatus]int64, error) {
	rows, err := conn(ctx, r.db).QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM applicants WHERE tenant_id = $1 GROUP BY status`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.CaseStatus]int64, len(domain.AllCaseStatuses))
	for _, s := range domain.AllCaseStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status domain.CaseStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *applicantRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM applicants WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// expectOneRow turns an update that matched nothing into domain.ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResolveApplicant finds a case by internal UUID or by its human-readable
// case ID. A case outside the tenant is reported as domain.ErrNotFound.
func ResolveApplicant(ctx context.Context, repo ApplicantRepository, tenantID uuid.UUID, ref string) (*domain.Applicant, error) {
	var (
		applicant *domain.Applicant
		err       error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		applicant, err = repo.GetByID(ctx, tenantID, id)
	} else {
		applicant, err = repo.GetByCaseID(ctx, tenantID, strings.ToUpper(strings.TrimSpace(ref)))
	}
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return nil, fmt.Errorf("%w: case %s", domain.ErrNotFound, ref)
	}
	return applicant, nil
}
