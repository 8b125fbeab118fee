package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

type tenantRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	return conn(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO tenants (id, name, slug, locale) VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at`,
		t.ID, t.Name, t.Slug, t.Locale,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *tenantRepository) get(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	var t domain.Tenant
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &t, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.get(ctx, `SELECT id, name, slug, locale, created_at FROM tenants WHERE id = $1`, id)
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.get(ctx, `SELECT id, name, slug, locale, created_at FROM tenants WHERE slug = $1`, slug)
}
