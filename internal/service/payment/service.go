package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service/document"
)

type Service interface {
	// Record stores a payment against an approved grant. proof is optional.
	Record(ctx context.Context, actor domain.Actor, input domain.CreatePaymentInput, proof *document.Upload) (*domain.PaymentRecord, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, paymentID uuid.UUID, input domain.UpdatePaymentStatusInput) (*domain.PaymentRecord, error)
	ListByGrant(ctx context.Context, actor domain.Actor, grantID uuid.UUID) ([]domain.PaymentRecord, error)
}

type service struct {
	grantRepo   repository.GrantRepository
	paymentRepo repository.PaymentRepository
	auditRepo   repository.AuditLogRepository
	tx          repository.Transactor
	store       document.Store
	redis       *redis.Client
	maxBytes    int64
	logger      *zap.Logger
}

func NewService(grantRepo repository.GrantRepository, paymentRepo repository.PaymentRepository, auditRepo repository.AuditLogRepository, tx repository.Transactor, store document.Store, rdb *redis.Client, maxBytes int64, logger *zap.Logger) Service {
	return &service{
		grantRepo:   grantRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		store:       store,
		redis:       rdb,
		maxBytes:    maxBytes,
		logger:      logger.Named("payment"),
	}
}

func canManage(actor domain.Actor) error {
	if !actor.HasAnyRole(domain.RoleAdmin, domain.RoleTreasurer) {
		return fmt.Errorf("%w: role %s may not manage payments", domain.ErrForbidden, actor.Role)
	}
	return nil
}

func (s *service) Record(ctx context.Context, actor domain.Actor, input domain.CreatePaymentInput, proof *document.Upload) (*domain.PaymentRecord, error) {
	if err := canManage(actor); err != nil {
		return nil, err
	}

	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		return nil, fmt.Errorf("%w: paymentMethod is required", domain.ErrValidation)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", domain.ErrValidation)
	}
	paidOn, err := parsePaymentDate(input.PaymentDate)
	if err != nil {
		return nil, err
	}
	status := domain.PaymentCompleted
	if input.Status != "" {
		status = domain.PaymentStatus(input.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: invalid payment status %q", domain.ErrValidation, input.Status)
		}
	}
	if proof != nil {
		if err := document.Validate(*proof, s.maxBytes); err != nil {
			return nil, err
		}
	}

	grant, err := s.grantRepo.GetByID(ctx, actor.TenantID, input.GrantID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, fmt.Errorf("%w: grant %s", domain.ErrNotFound, input.GrantID)
	}
	if grant.Status != domain.GrantApproved {
		return nil, fmt.Errorf("%w: payments require an approved grant", domain.ErrValidation)
	}

	record := &domain.PaymentRecord{
		ID:            uuid.New(),
		TenantID:      grant.TenantID,
		GrantID:       grant.ID,
		ApplicantID:   grant.ApplicantID,
		Amount:        input.Amount,
		PaymentMethod: method,
		PaymentDate:   paidOn,
		Status:        status,
		Notes:         input.Notes,
		RecordedBy:    actor.UserID,
	}

	var stored *domain.StoredFile
	if proof != nil {
		f, err := s.store.Put(ctx, "payments/"+grant.ID.String(), *proof)
		if err != nil {
			return nil, err
		}
		stored = &f
		record.ProofFileName = &f.FileName
		record.ProofURL = &f.URL
		record.ProofStored = &f.StoredName
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.Create(ctx, record); err != nil {
			return err
		}
		return repository.CreateAuditLog(ctx, s.auditRepo, domain.CreateAuditLogInput{
			Actor:      actor,
			Action:     domain.AuditPaymentRecorded,
			EntityType: "payment",
			EntityID:   record.ID,
			NewValue:   record,
		})
	})
	if err != nil {
		if stored != nil {
			document.RemoveAll(context.WithoutCancel(ctx), s.store, []domain.StoredFile{*stored})
		}
		return nil, err
	}

	cache.Delete(ctx, s.redis, cache.DashboardKey(actor.TenantID))
	return record, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor domain.Actor, paymentID uuid.UUID, input domain.UpdatePaymentStatusInput) (*domain.PaymentRecord, error) {
	if err := canManage(actor); err != nil {
		return nil, err
	}
	status := domain.PaymentStatus(input.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid payment status %q", domain.ErrValidation, input.Status)
	}

	record, err := s.paymentRepo.GetByID(ctx, actor.TenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: payment %s", domain.ErrNotFound, paymentID)
	}
	if record.Status == status {
		return record, nil
	}

	previous := record.Status
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.UpdateStatus(ctx, record.ID, status); err != nil {
			return err
		}
		return repository.CreateAuditLog(ctx, s.auditRepo, domain.CreateAuditLogInput{
			Actor:      actor,
			Action:     domain.AuditPaymentStatus,
			EntityType: "payment",
			EntityID:   record.ID,
			OldValue:   map[string]domain.PaymentStatus{"status": previous},
			NewValue:   map[string]domain.PaymentStatus{"status": status},
		})
	})
	if err != nil {
		return nil, err
	}

	record.Status = status
	cache.Delete(ctx, s.redis, cache.DashboardKey(actor.TenantID))
	return record, nil
}

func (s *service) ListByGrant(ctx context.Context, actor domain.Actor, grantID uuid.UUID) ([]domain.PaymentRecord, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: payments are internal", domain.ErrForbidden)
	}
	grant, err := s.grantRepo.GetByID(ctx, actor.TenantID, grantID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, fmt.Errorf("%w: grant %s", domain.ErrNotFound, grantID)
	}

	payments, err := s.paymentRepo.ListByGrant(ctx, grant.ID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}
	return payments, nil
}

// parsePaymentDate accepts a calendar date or a full RFC 3339 timestamp.
func parsePaymentDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: paymentDate is required", domain.ErrValidation)
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: paymentDate must be YYYY-MM-DD", domain.ErrValidation)
	}
	return t, nil
}
