package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type Service interface {
	GetRecentActivities(ctx context.Context, actor domain.Actor, limit int) ([]domain.AuditLog, error)
	List(ctx context.Context, actor domain.Actor, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error)
	ListForEntity(ctx context.Context, actor domain.Actor, entityType string, entityID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error)
}

type service struct {
	auditRepo repository.AuditLogRepository
}

func NewService(auditRepo repository.AuditLogRepository) Service {
	return &service{
		auditRepo: auditRepo,
	}
}

func adminOnly(actor domain.Actor) error {
	if !actor.HasAnyRole(domain.RoleAdmin, domain.RoleSuperAdmin) {
		return fmt.Errorf("%w: audit trail is admin only", domain.ErrForbidden)
	}
	return nil
}

func (s *service) GetRecentActivities(ctx context.Context, actor domain.Actor, limit int) ([]domain.AuditLog, error) {
	if err := adminOnly(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	logs, err := s.auditRepo.ListRecent(ctx, actor.TenantID, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	if err := adminOnly(actor); err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	params.Validate()

	logs, total, err := s.auditRepo.List(ctx, actor.TenantID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	return domain.NewPaginatedResponse(logs, params.Page, params.PageSize, total), nil
}

func (s *service) ListForEntity(ctx context.Context, actor domain.Actor, entityType string, entityID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	if err := adminOnly(actor); err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	params.Validate()

	logs, total, err := s.auditRepo.ListByEntity(ctx, actor.TenantID, entityType, entityID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	return domain.NewPaginatedResponse(logs, params.Page, params.PageSize, total), nil
}
