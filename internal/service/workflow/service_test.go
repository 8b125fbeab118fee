package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
	"rahmah-exchange/internal/service/workflow"
)

type fixture struct {
	applicants  *mocks.ApplicantRepository
	grants      *mocks.GrantRepository
	notes       *mocks.CaseNoteRepository
	assignments *mocks.AssignmentRepository
	users       *mocks.UserRepository
	documents   *mocks.DocumentRepository
	audit       *mocks.AuditLogRepository
	notifier    *mocks.NotificationService
	rdb         *redis.Client
	now         time.Time
	svc         workflow.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	renderer, err := email.NewRenderer(&config.Config{FromName: "Rahmah Exchange", AppBaseURL: "https://rahmah.test"})
	require.NoError(t, err)
	mr := miniredis.RunT(t)

	f := &fixture{
		applicants:  new(mocks.ApplicantRepository),
		grants:      new(mocks.GrantRepository),
		notes:       new(mocks.CaseNoteRepository),
		assignments: new(mocks.AssignmentRepository),
		users:       new(mocks.UserRepository),
		documents:   new(mocks.DocumentRepository),
		audit:       new(mocks.AuditLogRepository),
		notifier:    new(mocks.NotificationService),
		rdb:         redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		now:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = workflow.NewService(workflow.Dependencies{
		Applicants:  f.applicants,
		Grants:      f.grants,
		Notes:       f.notes,
		Assignments: f.assignments,
		Users:       f.users,
		Documents:   f.documents,
		AuditLogs:   f.audit,
		Tx:          new(mocks.Transactor),
		Notifier:    f.notifier,
		Renderer:    renderer,
		Redis:       f.rdb,
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return f.now },
	})
	f.documents.On("ListByApplicant", mock.Anything, mock.Anything, domain.DocumentCase).Return([]domain.Document{}, nil).Maybe()
	f.documents.On("ListByGrant", mock.Anything, mock.Anything).Return([]domain.Document{}, nil).Maybe()
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("Send", mock.Anything, mock.Anything).Return().Maybe()
	return f
}

func newCase(tenantID uuid.UUID, status domain.CaseStatus) *domain.Applicant {
	return &domain.Applicant{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CaseID:    "CASE-20240301-AB12CD",
		Status:    status,
		FirstName: "Amina",
		LastName:  "Yusuf",
		Email:     "amina@example.org",
	}
}

func withStatus(a *domain.Applicant, status domain.CaseStatus) *domain.Applicant {
	c := *a
	c.Status = status
	return &c
}

func raw(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func noticesOfType(notices []notification.Notice, typ domain.NotificationType) []notification.Notice {
	var out []notification.Notice
	for _, n := range notices {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func TestUpdateApplicant_ApproverApproves(t *testing.T) {
	f := newFixture(t)
	tenantID := uuid.New()
	applicant := newCase(tenantID, domain.StatusReadyForApproval)
	approver := domain.Actor{UserID: uuid.New(), Role: domain.RoleApprover, TenantID: tenantID, Name: "Bilal"}
	treasurer := domain.User{ID: uuid.New(), TenantID: tenantID, Email: "t@example.org", FullName: "Tariq", Role: domain.RoleTreasurer}
	amount := decimal.NewFromInt(750)
	approvalNote := &domain.CaseNote{ID: uuid.New(), NoteType: domain.NoteApproval, Content: "Rent support", ApprovalAmount: &amount}
	grant := &domain.Grant{ID: uuid.New(), ApplicantID: applicant.ID, Status: domain.GrantPending}

	f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
	f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusApproved).Return(nil).Once()
	f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(grant, nil).Once()
	f.grants.On("Update", mock.Anything, mock.MatchedBy(func(g *domain.Grant) bool {
		return g.Status == domain.GrantApproved && g.UpdatedBy == approver.UserID
	})).Return(nil).Once()
	f.notes.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.CaseNote) bool {
		return n.NoteType == domain.NoteStatusUpdate &&
			n.Content == "Status changed from Ready for Approval to Approved" &&
			n.AuthorID == approver.UserID
	})).Return(nil).Once()
	f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(withStatus(applicant, domain.StatusApproved), nil).Once()
	f.notes.On("LatestApprovalNote", mock.Anything, applicant.ID).Return(approvalNote, nil).Once()
	f.users.On("ListActiveByRole", mock.Anything, tenantID, domain.RoleTreasurer).Return([]domain.User{treasurer}, nil).Once()
	f.notes.On("ListRecentByType", mock.Anything, applicant.ID, domain.NoteApproval, 5).Return([]domain.CaseNote{*approvalNote}, nil).Once()

	got, err := f.svc.UpdateApplicant(context.Background(), approver, applicant.ID.String(), raw(t, `{"status":"Approved"}`))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.NotNil(t, got.Documents)

	notices := f.notifier.Notices()
	payment := noticesOfType(notices, domain.NotifPaymentRequired)
	require.Len(t, payment, 1)
	assert.Equal(t, treasurer.ID, *payment[0].UserID)
	assert.Equal(t, []string{"t@example.org"}, payment[0].Email.To)
	assert.Contains(t, payment[0].Email.Text, "750.00")

	status := noticesOfType(notices, domain.NotifCaseStatus)
	require.Len(t, status, 1)
	assert.Nil(t, status[0].UserID)
	assert.Equal(t, []string{"amina@example.org"}, status[0].Email.To)
	assert.Contains(t, status[0].Email.Text, "750.00")

	f.applicants.AssertExpectations(t)
	f.grants.AssertExpectations(t)
	f.notes.AssertExpectations(t)
	f.audit.AssertNumberOfCalls(t, "Create", 1)
}

func TestUpdateApplicant_AdminApprovalSkipsTreasurers(t *testing.T) {
	f := newFixture(t)
	tenantID := uuid.New()
	applicant := newCase(tenantID, domain.StatusReadyForApproval)
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID, Name: "Hana"}

	f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
	f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusApproved).Return(nil).Once()
	f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(nil, nil).Once()
	f.notes.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(withStatus(applicant, domain.StatusApproved), nil).Once()
	f.notes.On("LatestApprovalNote", mock.Anything, applicant.ID).Return(nil, nil).Once()

	_, err := f.svc.UpdateApplicant(context.Background(), admin, applicant.ID.String(), raw(t, `{"status":"Approved"}`))

	require.NoError(t, err)
	f.users.AssertNotCalled(t, "ListActiveByRole", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, noticesOfType(f.notifier.Notices(), domain.NotifPaymentRequired))
	assert.Len(t, noticesOfType(f.notifier.Notices(), domain.NotifCaseStatus), 1)
	f.grants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateApplicant_RejectionNotifiesCaseworkers(t *testing.T) {
	tenantID := uuid.New()
	approver := domain.Actor{UserID: uuid.New(), Role: domain.RoleApprover, TenantID: tenantID, Name: "Bilal"}
	assigned := domain.User{ID: uuid.New(), Email: "cw1@example.org", FullName: "Zaid", Role: domain.RoleCaseworker}
	everyone := []domain.User{
		{ID: uuid.New(), Email: "cw2@example.org", FullName: "Maryam", Role: domain.RoleCaseworker},
		{ID: uuid.New(), Email: "cw3@example.org", FullName: "Omar", Role: domain.RoleCaseworker},
	}

	setup := func(t *testing.T) (*fixture, *domain.Applicant) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusRejected).Return(nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(nil, nil).Once()
		f.notes.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(withStatus(applicant, domain.StatusRejected), nil).Once()
		f.notes.On("ListSince", mock.Anything, applicant.ID, f.now.Add(-24*time.Hour), 10).
			Return([]domain.CaseNote{{NoteType: domain.NoteDecision, Content: "Income above threshold", AuthorName: "Bilal"}}, nil).Once()
		return f, applicant
	}

	t.Run("Assigned caseworkers only", func(t *testing.T) {
		f, applicant := setup(t)
		f.assignments.On("ListAssignedUsers", mock.Anything, applicant.ID, domain.RoleCaseworker).Return([]domain.User{assigned}, nil).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), approver, applicant.ID.String(), raw(t, `{"status":"Rejected"}`))

		require.NoError(t, err)
		rejected := noticesOfType(f.notifier.Notices(), domain.NotifCaseRejected)
		require.Len(t, rejected, 1)
		assert.Equal(t, assigned.ID, *rejected[0].UserID)
		assert.Contains(t, rejected[0].Email.Text, "Income above threshold")
		assert.Len(t, noticesOfType(f.notifier.Notices(), domain.NotifCaseStatus), 1)
		f.users.AssertNotCalled(t, "ListActiveByRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Falls back to every active caseworker", func(t *testing.T) {
		f, applicant := setup(t)
		f.assignments.On("ListAssignedUsers", mock.Anything, applicant.ID, domain.RoleCaseworker).Return([]domain.User{}, nil).Once()
		f.users.On("ListActiveByRole", mock.Anything, tenantID, domain.RoleCaseworker).Return(everyone, nil).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), approver, applicant.ID.String(), raw(t, `{"status":"Rejected"}`))

		require.NoError(t, err)
		rejected := noticesOfType(f.notifier.Notices(), domain.NotifCaseRejected)
		require.Len(t, rejected, 2)
		assert.Equal(t, []string{"cw2@example.org"}, rejected[0].Email.To)
		assert.Equal(t, []string{"cw3@example.org"}, rejected[1].Email.To)
	})
}

func TestUpdateApplicant_Validation(t *testing.T) {
	tenantID := uuid.New()
	caseworker := domain.Actor{UserID: uuid.New(), Role: domain.RoleCaseworker, TenantID: tenantID}

	t.Run("Unknown case", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()
		f.applicants.On("GetByID", mock.Anything, tenantID, id).Return(nil, nil).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), caseworker, id.String(), raw(t, `{"city":"Leeds"}`))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Caseworker cannot approve", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), caseworker, applicant.ID.String(), raw(t, `{"status":"Approved"}`))
		assert.ErrorIs(t, err, domain.ErrForbidden)
		f.applicants.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Immutable field", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), caseworker, applicant.ID.String(), raw(t, `{"caseId":"CASE-X"}`))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Applicant is not staff", func(t *testing.T) {
		f := newFixture(t)
		applicantActor := domain.Actor{Role: domain.RoleApplicant, TenantID: tenantID}

		_, err := f.svc.UpdateApplicant(context.Background(), applicantActor, uuid.NewString(), raw(t, `{"city":"Leeds"}`))
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestUpdateApplicant_DataEdit(t *testing.T) {
	tenantID := uuid.New()
	caseworker := domain.Actor{UserID: uuid.New(), Role: domain.RoleCaseworker, TenantID: tenantID}

	t.Run("Writes columns without status side effects", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Twice()
		f.applicants.On("UpdateFields", mock.Anything, applicant.ID, map[string]any{"city": "Leeds", "household_size": 4}).Return(nil).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), caseworker, applicant.ID.String(), raw(t, `{"city":"Leeds","householdSize":4,"status":"In Review"}`))

		require.NoError(t, err)
		f.applicants.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		f.applicants.AssertExpectations(t)
	})

	t.Run("Duplicate email is a conflict", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.applicants.On("UpdateFields", mock.Anything, applicant.ID, mock.Anything).Return(&pq.Error{Code: "23505"}).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), caseworker, applicant.ID.String(), raw(t, `{"email":"taken@example.org"}`))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Failed write sends nothing", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusRejected).Return(errors.New("db down")).Once()

		_, err := f.svc.UpdateApplicant(context.Background(), admin, applicant.ID.String(), raw(t, `{"status":"Rejected"}`))
		assert.Error(t, err)
		f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestUpsertGrant(t *testing.T) {
	tenantID := uuid.New()
	amount := decimal.NewFromInt(1200)
	months := 6

	t.Run("Create requires amount or months", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}
		remarks := "pending docs"
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(nil, nil).Once()

		_, _, err := f.svc.UpsertGrant(context.Background(), admin, domain.UpsertGrantInput{ApplicantID: applicant.ID, Remarks: &remarks})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Caseworker amount is forbidden", func(t *testing.T) {
		f := newFixture(t)
		caseworker := domain.Actor{UserID: uuid.New(), Role: domain.RoleCaseworker, TenantID: tenantID}

		_, _, err := f.svc.UpsertGrant(context.Background(), caseworker, domain.UpsertGrantInput{ApplicantID: uuid.New(), GrantedAmount: &amount})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Legacy keys create a pending grant", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusInReview)
		approver := domain.Actor{UserID: uuid.New(), Role: domain.RoleApprover, TenantID: tenantID}
		notes := "first tranche"
		bogus := "Paid"
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(nil, nil).Once()
		f.grants.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Grant) bool {
			return g.GrantedAmount.Equal(amount) && *g.Remarks == notes && g.Status == domain.GrantPending
		})).Return(nil).Once()

		grant, created, err := f.svc.UpsertGrant(context.Background(), approver, domain.UpsertGrantInput{
			ApplicantID:   applicant.ID,
			AmountGranted: &amount,
			Notes:         &notes,
			Status:        &bogus,
		})

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, domain.GrantPending, grant.Status)
		assert.NotNil(t, grant.PaymentDocuments)
		f.applicants.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Approving the grant approves the case", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusReadyForApproval)
		treasurer := domain.Actor{UserID: uuid.New(), Role: domain.RoleTreasurer, TenantID: tenantID, Name: "Tariq"}
		approved := "Approved"
		existing := &domain.Grant{ID: uuid.New(), ApplicantID: applicant.ID, GrantedAmount: &amount, NumberOfMonths: &months, Status: domain.GrantPending}

		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(existing, nil).Once()
		f.grants.On("Update", mock.Anything, mock.MatchedBy(func(g *domain.Grant) bool {
			return g.Status == domain.GrantApproved
		})).Return(nil).Once()
		f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusApproved).Return(nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(existing, nil).Once()
		f.notes.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		f.notes.On("LatestApprovalNote", mock.Anything, applicant.ID).Return(nil, nil).Once()

		grant, created, err := f.svc.UpsertGrant(context.Background(), treasurer, domain.UpsertGrantInput{ApplicantID: applicant.ID, Status: &approved})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, domain.GrantApproved, grant.Status)
		f.applicants.AssertExpectations(t)
		f.notes.AssertExpectations(t)
		assert.Len(t, noticesOfType(f.notifier.Notices(), domain.NotifCaseStatus), 1)
		assert.Empty(t, noticesOfType(f.notifier.Notices(), domain.NotifPaymentRequired))
		f.audit.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("Approver creates an approved grant", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		applicant := newCase(tenantID, domain.StatusInReview)
		approver := domain.Actor{UserID: uuid.New(), Role: domain.RoleApprover, TenantID: tenantID, Name: "Bilal"}
		treasurer := domain.User{ID: uuid.New(), TenantID: tenantID, Email: "t@example.org", FullName: "Tariq", Role: domain.RoleTreasurer}
		five := decimal.NewFromInt(500)
		approved := "Approved"
		notesKey := cache.CaseNotesKey(applicant.ID, 1, 20)
		cache.SetJSON(ctx, f.rdb, notesKey, []string{"cached"}, cache.DefaultTTL)

		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(nil, nil).Once()
		f.grants.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Grant) bool {
			return g.GrantedAmount.Equal(five) && g.Status == domain.GrantApproved && g.CreatedBy == approver.UserID
		})).Return(nil).Once()
		f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusApproved).Return(nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).
			Return(&domain.Grant{ApplicantID: applicant.ID, GrantedAmount: &five, Status: domain.GrantApproved}, nil).Once()
		f.notes.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.CaseNote) bool {
			return n.NoteType == domain.NoteStatusUpdate && n.Content == "Status changed from In Review to Approved"
		})).Return(nil).Once()
		f.notes.On("LatestApprovalNote", mock.Anything, applicant.ID).Return(nil, nil).Once()
		f.users.On("ListActiveByRole", mock.Anything, tenantID, domain.RoleTreasurer).Return([]domain.User{treasurer}, nil).Once()
		f.notes.On("ListRecentByType", mock.Anything, applicant.ID, domain.NoteApproval, 5).Return([]domain.CaseNote{}, nil).Once()

		grant, created, err := f.svc.UpsertGrant(ctx, approver, domain.UpsertGrantInput{
			ApplicantID:   applicant.ID,
			GrantedAmount: &five,
			Status:        &approved,
		})

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, domain.GrantApproved, grant.Status)
		assert.True(t, grant.GrantedAmount.Equal(five))
		f.applicants.AssertExpectations(t)
		f.grants.AssertExpectations(t)
		f.notes.AssertExpectations(t)

		payment := noticesOfType(f.notifier.Notices(), domain.NotifPaymentRequired)
		require.Len(t, payment, 1)
		assert.Equal(t, treasurer.ID, *payment[0].UserID)
		assert.Equal(t, []string{"t@example.org"}, payment[0].Email.To)
		assert.NotContains(t, payment[0].Email.Text, "500.00")
		assert.Len(t, noticesOfType(f.notifier.Notices(), domain.NotifCaseStatus), 1)

		assert.Zero(t, f.rdb.Exists(ctx, notesKey).Val())
	})

	t.Run("Negative amount", func(t *testing.T) {
		f := newFixture(t)
		admin := domain.Actor{Role: domain.RoleAdmin, TenantID: tenantID}
		negative := decimal.NewFromInt(-1)

		_, _, err := f.svc.UpsertGrant(context.Background(), admin, domain.UpsertGrantInput{ApplicantID: uuid.New(), GrantedAmount: &negative})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestGetGrant(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Applicant reads own grant", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusApproved)
		actor := domain.Actor{Role: domain.RoleApplicant, TenantID: tenantID, ApplicantID: &applicant.ID}
		grant := &domain.Grant{ID: uuid.New(), ApplicantID: applicant.ID, Status: domain.GrantApproved}
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(grant, nil).Once()

		got, err := f.svc.GetGrant(context.Background(), actor, applicant.ID)
		require.NoError(t, err)
		assert.Equal(t, grant.ID, got.ID)
	})

	t.Run("Applicant reading another case", func(t *testing.T) {
		f := newFixture(t)
		own := uuid.New()
		actor := domain.Actor{Role: domain.RoleApplicant, TenantID: tenantID, ApplicantID: &own}

		_, err := f.svc.GetGrant(context.Background(), actor, uuid.New())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("No grant yet", func(t *testing.T) {
		f := newFixture(t)
		applicant := newCase(tenantID, domain.StatusPending)
		actor := domain.Actor{Role: domain.RoleCaseworker, TenantID: tenantID}
		f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
		f.grants.On("GetByApplicant", mock.Anything, applicant.ID).Return(nil, nil).Once()

		_, err := f.svc.GetGrant(context.Background(), actor, applicant.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUpdateApplicant_StatusChangeDropsCachedNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	applicant := newCase(tenantID, domain.StatusPending)
	caseworker := domain.Actor{UserID: uuid.New(), Role: domain.RoleCaseworker, TenantID: tenantID, Name: "Zaid"}
	otherCase := uuid.New()

	notesKey := cache.CaseNotesKey(applicant.ID, 1, 20)
	otherKey := cache.CaseNotesKey(otherCase, 1, 20)
	dashboardKey := cache.DashboardKey(tenantID)
	for _, key := range []string{notesKey, otherKey, dashboardKey} {
		cache.SetJSON(ctx, f.rdb, key, []string{"cached"}, cache.DefaultTTL)
	}

	f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(applicant, nil).Once()
	f.applicants.On("UpdateStatus", mock.Anything, applicant.ID, domain.StatusInReview).Return(nil).Once()
	f.notes.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.CaseNote) bool {
		return n.NoteType == domain.NoteStatusUpdate
	})).Return(nil).Once()
	f.applicants.On("GetByID", mock.Anything, tenantID, applicant.ID).Return(withStatus(applicant, domain.StatusInReview), nil).Once()

	_, err := f.svc.UpdateApplicant(ctx, caseworker, applicant.ID.String(), raw(t, `{"status":"In Review"}`))

	require.NoError(t, err)
	f.notes.AssertExpectations(t)
	assert.Zero(t, f.rdb.Exists(ctx, notesKey).Val())
	assert.Zero(t, f.rdb.Exists(ctx, dashboardKey).Val())
	assert.EqualValues(t, 1, f.rdb.Exists(ctx, otherKey).Val())
}
