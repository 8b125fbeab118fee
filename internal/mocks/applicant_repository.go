package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rahmah-exchange/internal/domain"
)

type ApplicantRepository struct {
	mock.Mock
}

func (m *ApplicantRepository) Create(ctx context.Context, applicant *domain.Applicant) error {
	args := m.Called(ctx, applicant)
	return args.Error(0)
}

func (m *ApplicantRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Applicant, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *ApplicantRepository) GetByCaseID(ctx context.Context, tenantID uuid.UUID, caseID string) (*domain.Applicant, error) {
	args := m.Called(ctx, tenantID, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *ApplicantRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Applicant, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *ApplicantRepository) GetByMagicTokenHash(ctx context.Context, tokenHash string) (*domain.Applicant, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *ApplicantRepository) ExistsByCaseID(ctx context.Context, caseID string) (bool, error) {
	args := m.Called(ctx, caseID)
	return args.Bool(0), args.Error(1)
}

func (m *ApplicantRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

func (m *ApplicantRepository) UpdateFields(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	args := m.Called(ctx, id, columns)
	return args.Error(0)
}

func (m *ApplicantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *ApplicantRepository) SetMagicToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, id, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *ApplicantRepository) List(ctx context.Context, tenantID uuid.UUID, filter domain.ApplicantFilter, params domain.PaginationParams) ([]domain.Applicant, int64, error) {
	args := m.Called(ctx, tenantID, filter, params)
	return args.Get(0).([]domain.Applicant), args.Get(1).(int64), args.Error(2)
}

func (m *ApplicantRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.CaseStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.CaseStatus]int64), args.Error(1)
}

func (m *ApplicantRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// Transactor runs fn inline, so repository mocks see the same ctx.
type Transactor struct {
	mock.Mock
}

func (m *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if len(m.ExpectedCalls) > 0 {
		args := m.Called(ctx)
		if err := args.Error(0); err != nil {
			return err
		}
	}
	return fn(ctx)
}
