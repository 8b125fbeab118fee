package repository

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

const documentColumns = `id, tenant_id, applicant_id, grant_id, kind, file_name, stored_name, url, size, mime_type, uploaded_by, uploaded_at`

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Document, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, kind domain.DocumentKind) ([]domain.Document, error)
	ListByGrant(ctx context.Context, grantID uuid.UUID) ([]domain.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, d *domain.Document) error {
	query := `
		INSERT INTO documents (id, tenant_id, applicant_id, grant_id, kind, file_name, stored_name, url, size, mime_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING uploaded_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		d.ID, d.TenantID, d.ApplicantID, d.GrantID, d.Kind, d.FileName, d.StoredName, d.URL, d.Size, d.MimeType, d.UploadedBy,
	).Scan(&d.UploadedAt)
}

func (r *documentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &doc,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByApplicant returns the case's documents of one kind, or of every kind
// when kind is empty.
func (r *documentRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, kind domain.DocumentKind) ([]domain.Document, error) {
	q := psql().Select(documentColumns).From("documents").Where(sq.Eq{"applicant_id": applicantID}).OrderBy("uploaded_at")
	if kind != "" {
		q = q.Where(sq.Eq{"kind": kind})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &docs, query, args...)
	return docs, err
}

func (r *documentRepository) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]domain.Document, error) {
	var docs []domain.Document
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &docs,
		`SELECT `+documentColumns+` FROM documents WHERE grant_id = $1 ORDER BY uploaded_at`, grantID)
	return docs, err
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
