package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

const caseNoteColumns = `id, tenant_id, applicant_id, note_type, content, approval_amount,
	author_id, author_name, author_role, created_at, updated_at`

type CaseNoteRepository interface {
	Create(ctx context.Context, note *domain.CaseNote) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.CaseNote, error)
	Update(ctx context.Context, note *domain.CaseNote) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, params domain.PaginationParams) ([]domain.CaseNote, int64, error)
	LatestApprovalNote(ctx context.Context, applicantID uuid.UUID) (*domain.CaseNote, error)
	ListRecentByType(ctx context.Context, applicantID uuid.UUID, noteType domain.NoteType, limit int) ([]domain.CaseNote, error)
	ListSince(ctx context.Context, applicantID uuid.UUID, since time.Time, limit int) ([]domain.CaseNote, error)
}

type caseNoteRepository struct {
	db *sqlx.DB
}

func NewCaseNoteRepository(db *sqlx.DB) CaseNoteRepository {
	return &caseNoteRepository{db: db}
}

func (r *caseNoteRepository) Create(ctx context.Context, n *domain.CaseNote) error {
	query := `
		INSERT INTO case_notes (id, tenant_id, applicant_id, note_type, content, approval_amount, author_id, author_name, author_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		n.ID, n.TenantID, n.ApplicantID, n.NoteType, n.Content, n.ApprovalAmount, n.AuthorID, n.AuthorName, n.AuthorRole,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *caseNoteRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.CaseNote, error) {
	var note domain.CaseNote
	query := `SELECT ` + caseNoteColumns + ` FROM case_notes WHERE id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, conn(ctx, r.db), &note, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *caseNoteRepository) Update(ctx context.Context, n *domain.CaseNote) error {
	query := `
		UPDATE case_notes SET content = $2, approval_amount = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := conn(ctx, r.db).QueryRowxContext(ctx, query, n.ID, n.Content, n.ApprovalAmount).Scan(&n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *caseNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM case_notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *caseNoteRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, params domain.PaginationParams) ([]domain.CaseNote, int64, error) {
	params.Validate()

	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total,
		`SELECT COUNT(*) FROM case_notes WHERE applicant_id = $1`, applicantID); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + caseNoteColumns + ` FROM case_notes
		WHERE applicant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var notes []domain.CaseNote
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &notes, query, applicantID, params.PageSize, params.Offset())
	return notes, total, err
}

// LatestApprovalNote returns the newest approval note that carries an amount.
func (r *caseNoteRepository) LatestApprovalNote(ctx context.Context, applicantID uuid.UUID) (*domain.CaseNote, error) {
	var note domain.CaseNote
	query := `SELECT ` + caseNoteColumns + ` FROM case_notes
		WHERE applicant_id = $1 AND note_type = 'approval_note' AND approval_amount IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, conn(ctx, r.db), &note, query, applicantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *caseNoteRepository) ListRecentByType(ctx context.Context, applicantID uuid.UUID, noteType domain.NoteType, limit int) ([]domain.CaseNote, error) {
	query := `SELECT ` + caseNoteColumns + ` FROM case_notes
		WHERE applicant_id = $1 AND note_type = $2
		ORDER BY created_at DESC
		LIMIT $3`

	var notes []domain.CaseNote
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &notes, query, applicantID, noteType, limit)
	return notes, err
}

func (r *caseNoteRepository) ListSince(ctx context.Context, applicantID uuid.UUID, since time.Time, limit int) ([]domain.CaseNote, error) {
	query := `SELECT ` + caseNoteColumns + ` FROM case_notes
		WHERE applicant_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`

	var notes []domain.CaseNote
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &notes, query, applicantID, since, limit)
	return notes, err
}
