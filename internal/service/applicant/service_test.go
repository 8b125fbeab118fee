package applicant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/service/applicant"
)

type fixture struct {
	applicants  *mocks.ApplicantRepository
	documents   *mocks.DocumentRepository
	assignments *mocks.AssignmentRepository
	users       *mocks.UserRepository
	audit       *mocks.AuditLogRepository
	store       *mocks.DocumentStore
	notifier    *mocks.NotificationService
	svc         applicant.Service
}

func newFixture() *fixture {
	f := &fixture{
		applicants:  new(mocks.ApplicantRepository),
		documents:   new(mocks.DocumentRepository),
		assignments: new(mocks.AssignmentRepository),
		users:       new(mocks.UserRepository),
		audit:       new(mocks.AuditLogRepository),
		store:       new(mocks.DocumentStore),
		notifier:    new(mocks.NotificationService),
	}
	f.svc = applicant.NewService(applicant.Dependencies{
		Applicants:  f.applicants,
		Documents:   f.documents,
		Assignments: f.assignments,
		Users:       f.users,
		AuditLogs:   f.audit,
		Tx:          new(mocks.Transactor),
		Store:       f.store,
		Notifier:    f.notifier,
		Logger:      zap.NewNop(),
	})
	f.notifier.On("Send", mock.Anything, mock.Anything).Return().Maybe()
	return f
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	record := func() *domain.Applicant {
		return &domain.Applicant{ID: uuid.New(), TenantID: tenantID, CaseID: "CASE-20240301-AB12CD"}
	}

	t.Run("Staff by case ID", func(t *testing.T) {
		f := newFixture()
		a := record()
		f.applicants.On("GetByCaseID", ctx, tenantID, "CASE-20240301-AB12CD").Return(a, nil).Once()
		f.documents.On("ListByApplicant", ctx, a.ID, domain.DocumentCase).Return(nil, nil).Once()

		got, err := f.svc.Get(ctx, domain.Actor{Role: domain.RoleApprover, TenantID: tenantID}, " case-20240301-ab12cd ")

		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.NotNil(t, got.Documents)
	})

	t.Run("Applicant reads own case only", func(t *testing.T) {
		f := newFixture()
		a := record()
		other := uuid.New()
		f.applicants.On("GetByID", ctx, tenantID, a.ID).Return(a, nil).Once()

		_, err := f.svc.Get(ctx, domain.Actor{Role: domain.RoleApplicant, TenantID: tenantID, ApplicantID: &other}, a.ID.String())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Missing case", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.applicants.On("GetByID", ctx, tenantID, id).Return(nil, nil).Once()

		_, err := f.svc.Get(ctx, domain.Actor{Role: domain.RoleAdmin, TenantID: tenantID}, id.String())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	staff := domain.Actor{Role: domain.RoleCaseworker, TenantID: tenantID}

	t.Run("Filters and paginates", func(t *testing.T) {
		f := newFixture()
		status := domain.StatusInReview
		f.applicants.On("List", ctx, tenantID, domain.ApplicantFilter{Status: &status, Search: "amina"}, domain.PaginationParams{Page: 2, PageSize: 10}).
			Return([]domain.Applicant{{ID: uuid.New()}}, int64(11), nil).Once()

		resp, err := f.svc.List(ctx, staff, domain.ApplicantFilter{Status: &status, Search: " amina "}, domain.PaginationParams{Page: 2, PageSize: 10})

		require.NoError(t, err)
		assert.Equal(t, 2, resp.TotalPages)
		assert.True(t, resp.HasPrev)
		assert.False(t, resp.HasNext)
	})

	t.Run("Invalid status filter", func(t *testing.T) {
		f := newFixture()
		status := domain.CaseStatus("Closed")
		_, err := f.svc.List(ctx, staff, domain.ApplicantFilter{Status: &status}, domain.PaginationParams{})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Applicants cannot list", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.List(ctx, domain.Actor{Role: domain.RoleApplicant}, domain.ApplicantFilter{}, domain.PaginationParams{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}

	t.Run("Admin deletes, audits and removes files", func(t *testing.T) {
		f := newFixture()
		a := &domain.Applicant{ID: uuid.New(), TenantID: tenantID, CaseID: "CASE-20240301-AB12CD", Status: domain.StatusRejected}
		f.applicants.On("GetByID", ctx, tenantID, a.ID).Return(a, nil).Once()
		f.documents.On("ListByApplicant", ctx, a.ID, domain.DocumentKind("")).
			Return([]domain.Document{{StoredName: "cases/a.pdf"}, {StoredName: "grants/b.png"}}, nil).Once()
		f.applicants.On("Delete", ctx, tenantID, a.ID).Return(nil).Once()
		f.audit.On("Create", ctx, mock.MatchedBy(func(l *domain.AuditLog) bool {
			return l.Action == domain.AuditCaseDeleted && l.EntityID == a.ID
		})).Return(nil).Once()
		f.store.On("Remove", mock.Anything, "cases/a.pdf").Return(nil).Once()
		f.store.On("Remove", mock.Anything, "grants/b.png").Return(nil).Once()

		require.NoError(t, f.svc.Delete(ctx, admin, a.ID.String()))
		f.applicants.AssertExpectations(t)
		f.audit.AssertExpectations(t)
		f.store.AssertExpectations(t)
	})

	t.Run("Only admins", func(t *testing.T) {
		f := newFixture()
		err := f.svc.Delete(ctx, domain.Actor{Role: domain.RoleApprover, TenantID: tenantID}, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}
	a := &domain.Applicant{ID: uuid.New(), TenantID: tenantID, CaseID: "CASE-20240301-AB12CD", FirstName: "Amina", LastName: "Yusuf"}

	t.Run("Assigns active caseworker and notifies", func(t *testing.T) {
		f := newFixture()
		worker := &domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleCaseworker, IsActive: true, FullName: "Zaid"}
		f.applicants.On("GetByID", ctx, tenantID, a.ID).Return(a, nil).Once()
		f.users.On("GetByID", ctx, worker.ID).Return(worker, nil).Once()
		f.assignments.On("Assign", ctx, mock.MatchedBy(func(c *domain.CaseAssignment) bool {
			return c.UserID == worker.ID && c.AssignedBy == admin.UserID && c.ApplicantID == a.ID
		})).Return(nil).Once()
		f.audit.On("Create", ctx, mock.MatchedBy(func(l *domain.AuditLog) bool {
			return l.Action == domain.AuditCaseAssigned
		})).Return(nil).Once()

		got, err := f.svc.Assign(ctx, admin, a.ID.String(), domain.AssignCaseInput{UserID: worker.ID})

		require.NoError(t, err)
		assert.Equal(t, "Zaid", *got.UserName)
		notices := f.notifier.Notices()
		require.Len(t, notices, 1)
		assert.Equal(t, domain.NotifCaseAssigned, notices[0].Type)
		assert.Equal(t, worker.ID, *notices[0].UserID)
		assert.Contains(t, notices[0].Message, "Amina Yusuf")
	})

	t.Run("Rejects non caseworkers", func(t *testing.T) {
		f := newFixture()
		treasurer := &domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTreasurer, IsActive: true}
		f.applicants.On("GetByID", ctx, tenantID, a.ID).Return(a, nil).Once()
		f.users.On("GetByID", ctx, treasurer.ID).Return(treasurer, nil).Once()

		_, err := f.svc.Assign(ctx, admin, a.ID.String(), domain.AssignCaseInput{UserID: treasurer.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.assignments.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
	})

	t.Run("User of another tenant", func(t *testing.T) {
		f := newFixture()
		stranger := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleCaseworker, IsActive: true}
		f.applicants.On("GetByID", ctx, tenantID, a.ID).Return(a, nil).Once()
		f.users.On("GetByID", ctx, stranger.ID).Return(stranger, nil).Once()

		_, err := f.svc.Assign(ctx, admin, a.ID.String(), domain.AssignCaseInput{UserID: stranger.ID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Caseworkers cannot assign", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Assign(ctx, domain.Actor{Role: domain.RoleCaseworker, TenantID: tenantID}, a.ID.String(), domain.AssignCaseInput{UserID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestUnassign(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}
	a := &domain.Applicant{ID: uuid.New(), TenantID: tenantID}
	userID := uuid.New()

	f := newFixture()
	f.applicants.On("GetByID", ctx, tenantID, a.ID).Return(a, nil).Once()
	f.assignments.On("Unassign", ctx, a.ID, userID).Return(domain.ErrNotFound).Once()

	err := f.svc.Unassign(ctx, admin, a.ID.String(), userID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
