package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

type AssignmentRepository interface {
	Assign(ctx context.Context, assignment *domain.CaseAssignment) error
	Unassign(ctx context.Context, applicantID, userID uuid.UUID) error
	ListActiveByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.CaseAssignment, error)
	ListAssignedUsers(ctx context.Context, applicantID uuid.UUID, role domain.Role) ([]domain.User, error)
}

type assignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Assign is idempotent: assigning someone already on the case only refreshes
// who assigned them.
func (r *assignmentRepository) Assign(ctx context.Context, a *domain.CaseAssignment) error {
	query := `
		INSERT INTO case_assignments (id, tenant_id, applicant_id, user_id, assigned_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (applicant_id, user_id) WHERE is_active
		DO UPDATE SET assigned_by = EXCLUDED.assigned_by
		RETURNING id, is_active, assigned_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		a.ID, a.TenantID, a.ApplicantID, a.UserID, a.AssignedBy,
	).Scan(&a.ID, &a.IsActive, &a.AssignedAt)
}

func (r *assignmentRepository) Unassign(ctx context.Context, applicantID, userID uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE case_assignments SET is_active = false, unassigned_at = NOW()
		WHERE applicant_id = $1 AND user_id = $2 AND is_active`, applicantID, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *assignmentRepository) ListActiveByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.CaseAssignment, error) {
	query := `
		SELECT ca.id, ca.tenant_id, ca.applicant_id, ca.user_id, ca.assigned_by, ca.is_active,
			ca.assigned_at, ca.unassigned_at, u.full_name AS user_name, u.email AS user_email
		FROM case_assignments ca
		LEFT JOIN users u ON u.id = ca.user_id
		WHERE ca.applicant_id = $1 AND ca.is_active
		ORDER BY ca.assigned_at`

	var assignments []domain.CaseAssignment
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &assignments, query, applicantID)
	return assignments, err
}

// ListAssignedUsers returns the active users with role currently assigned to
// the case.
func (r *assignmentRepository) ListAssignedUsers(ctx context.Context, applicantID uuid.UUID, role domain.Role) ([]domain.User, error) {
	query := `SELECT ` + prefixed("u", userColumns) + `
		FROM case_assignments ca
		JOIN users u ON u.id = ca.user_id
		WHERE ca.applicant_id = $1 AND ca.is_active AND u.is_active AND u.role = $2
		ORDER BY ca.assigned_at`

	var users []domain.User
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &users, query, applicantID, role)
	return users, err
}
