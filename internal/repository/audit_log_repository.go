package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

const auditLogSelect = `
	SELECT al.id, al.tenant_id, al.user_id, u.full_name AS user_name, al.user_role, al.action,
		al.entity_type, al.entity_id, al.old_value, al.new_value, al.ip_address, al.user_agent, al.created_at
	FROM audit_logs al
	LEFT JOIN users u ON al.user_id = u.id`

type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, tenantID uuid.UUID, params domain.PaginationParams) ([]domain.AuditLog, int64, error)
	ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, params domain.PaginationParams) ([]domain.AuditLog, int64, error)
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, tenant_id, user_id, user_role, action, entity_type, entity_id, old_value, new_value, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		log.ID, log.TenantID, log.UserID, log.UserRole, log.Action, log.EntityType, log.EntityID,
		jsonOrNil(log.OldValue), jsonOrNil(log.NewValue), log.IPAddress, log.UserAgent,
	).Scan(&log.CreatedAt)
}

func (r *auditLogRepository) List(ctx context.Context, tenantID uuid.UUID, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	params.Validate()

	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total,
		`SELECT COUNT(*) FROM audit_logs WHERE tenant_id = $1`, tenantID); err != nil {
		return nil, 0, err
	}

	query := auditLogSelect + `
		WHERE al.tenant_id = $1
		ORDER BY al.created_at DESC
		LIMIT $2 OFFSET $3`

	var logs []domain.AuditLog
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &logs, query, tenantID, params.PageSize, params.Offset())
	return logs, total, err
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	params.Validate()

	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total,
		`SELECT COUNT(*) FROM audit_logs WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3`,
		tenantID, entityType, entityID); err != nil {
		return nil, 0, err
	}

	query := auditLogSelect + `
		WHERE al.tenant_id = $1 AND al.entity_type = $2 AND al.entity_id = $3
		ORDER BY al.created_at DESC
		LIMIT $4 OFFSET $5`

	var logs []domain.AuditLog
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &logs, query, tenantID, entityType, entityID, params.PageSize, params.Offset())
	return logs, total, err
}

func (r *auditLogRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	query := auditLogSelect + `
		WHERE al.tenant_id = $1
		ORDER BY al.created_at DESC
		LIMIT $2`

	var logs []domain.AuditLog
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &logs, query, tenantID, limit)
	return logs, err
}

// CreateAuditLog records an action taken by input.Actor. Values are stored as
// JSON snapshots; a nil value is stored as NULL.
func CreateAuditLog(ctx context.Context, repo AuditLogRepository, input domain.CreateAuditLogInput) error {
	log := &domain.AuditLog{
		ID:         uuid.New(),
		TenantID:   input.Actor.TenantID,
		UserID:     input.Actor.UserID,
		UserRole:   input.Actor.Role,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
	}
	if meta, ok := domain.RequestMetaFrom(ctx); ok {
		if log.IPAddress == nil && meta.IPAddress != "" {
			log.IPAddress = &meta.IPAddress
		}
		if log.UserAgent == nil && meta.UserAgent != "" {
			log.UserAgent = &meta.UserAgent
		}
	}

	if input.OldValue != nil {
		b, err := json.Marshal(input.OldValue)
		if err != nil {
			return err
		}
		log.OldValue = b
	}
	if input.NewValue != nil {
		b, err := json.Marshal(input.NewValue)
		if err != nil {
			return err
		}
		log.NewValue = b
	}

	return repo.Create(ctx, log)
}

func jsonOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
