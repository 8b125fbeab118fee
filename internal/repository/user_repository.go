package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

var userColumns = []string{
	"id", "tenant_id", "email", "password_hash", "full_name", "role",
	"is_active", "last_login_at", "created_at", "updated_at",
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListActiveByRole(ctx context.Context, tenantID uuid.UUID, role domain.Role) ([]domain.User, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.User, error)
	List(ctx context.Context, tenantID uuid.UUID, params domain.PaginationParams) ([]domain.User, int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) error
	TouchLogin(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		user.ID, user.TenantID, strings.ToLower(user.Email), user.PasswordHash, user.FullName, user.Role, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) getOne(ctx context.Context, where sq.Sqlizer) (*domain.User, error) {
	query, args, err := psql().Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	var user domain.User
	err = sqlx.GetContext(ctx, conn(ctx, r.db), &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"email": strings.ToLower(email)})
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email))
	return exists, err
}

func (r *userRepository) ListActiveByRole(ctx context.Context, tenantID uuid.UUID, role domain.Role) ([]domain.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"tenant_id": tenantID, "role": role, "is_active": true}).
		OrderBy("full_name").
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []domain.User
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &users, query, args...)
	return users, err
}

func (r *userRepository) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := psql().
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"tenant_id": tenantID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []domain.User
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &users, query, args...)
	return users, err
}

func (r *userRepository) List(ctx context.Context, tenantID uuid.UUID, params domain.PaginationParams) ([]domain.User, int64, error) {
	params.Validate()

	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID); err != nil {
		return nil, 0, err
	}

	query, args, err := psql().
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(uint64(params.PageSize)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var users []domain.User
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &users, query, args...)
	return users, total, err
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *userRepository) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET is_active = false, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *userRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}
