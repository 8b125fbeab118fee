package dashboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/repository"
)

type Stats struct {
	TotalCases     int64                       `json:"totalCases"`
	CasesByStatus  map[domain.CaseStatus]int64 `json:"casesByStatus"`
	TotalApproved  decimal.Decimal             `json:"totalApproved"`
	TotalPaid      decimal.Decimal             `json:"totalPaid"`
	OutstandingDue decimal.Decimal             `json:"outstandingDue"`
}

type Service interface {
	GetStats(ctx context.Context, actor domain.Actor) (*Stats, error)
}

type service struct {
	applicantRepo repository.ApplicantRepository
	grantRepo     repository.GrantRepository
	paymentRepo   repository.PaymentRepository
	redis         *redis.Client
}

func NewService(applicantRepo repository.ApplicantRepository, grantRepo repository.GrantRepository, paymentRepo repository.PaymentRepository, redis *redis.Client) Service {
	return &service{
		applicantRepo: applicantRepo,
		grantRepo:     grantRepo,
		paymentRepo:   paymentRepo,
		redis:         redis,
	}
}

func (s *service) GetStats(ctx context.Context, actor domain.Actor) (*Stats, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	cacheKey := cache.DashboardKey(actor.TenantID)

	var cached Stats
	if cache.GetJSON(ctx, s.redis, cacheKey, &cached) {
		return &cached, nil
	}

	counts, err := s.applicantRepo.CountByStatus(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	approved, err := s.grantRepo.SumApproved(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	paid, err := s.paymentRepo.SumCompleted(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[domain.CaseStatus]int64, len(domain.AllCaseStatuses))
	var total int64
	for _, status := range domain.AllCaseStatuses {
		byStatus[status] = counts[status]
		total += counts[status]
	}

	outstanding := approved.Sub(paid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	stats := &Stats{
		TotalCases:     total,
		CasesByStatus:  byStatus,
		TotalApproved:  approved,
		TotalPaid:      paid,
		OutstandingDue: outstanding,
	}

	cache.SetJSON(ctx, s.redis, cacheKey, stats, cache.DefaultTTL)
	return stats, nil
}
