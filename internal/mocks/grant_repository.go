package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"rahmah-exchange/internal/domain"
)

type GrantRepository struct {
	mock.Mock
}

func (m *GrantRepository) Create(ctx context.Context, grant *domain.Grant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *GrantRepository) Update(ctx context.Context, grant *domain.Grant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *GrantRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Grant, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Grant), args.Error(1)
}

func (m *GrantRepository) GetByApplicant(ctx context.Context, applicantID uuid.UUID) (*domain.Grant, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Grant), args.Error(1)
}

func (m *GrantRepository) ListForExport(ctx context.Context, tenantID uuid.UUID) ([]domain.GrantExportRow, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.GrantExportRow), args.Error(1)
}

func (m *GrantRepository) SumApproved(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type PaymentRepository struct {
	mock.Mock
}

func (m *PaymentRepository) Create(ctx context.Context, payment *domain.PaymentRecord) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *PaymentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

func (m *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *PaymentRepository) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]domain.PaymentRecord, error) {
	args := m.Called(ctx, grantID)
	return args.Get(0).([]domain.PaymentRecord), args.Error(1)
}

func (m *PaymentRepository) ListForExport(ctx context.Context, tenantID uuid.UUID) ([]domain.PaymentExportRow, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.PaymentExportRow), args.Error(1)
}

func (m *PaymentRepository) SumCompleted(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *DocumentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *DocumentRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, kind domain.DocumentKind) ([]domain.Document, error) {
	args := m.Called(ctx, applicantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *DocumentRepository) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]domain.Document, error) {
	args := m.Called(ctx, grantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
