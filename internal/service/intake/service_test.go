package intake_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/service/auth"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/intake"
	"rahmah-exchange/internal/service/notification"
)

type fixture struct {
	tenants    *mocks.TenantRepository
	applicants *mocks.ApplicantRepository
	users      *mocks.UserRepository
	documents  *mocks.DocumentRepository
	store      *mocks.DocumentStore
	notifier   *mocks.NotificationService
	suffixes   []string
	svc        intake.Service
}

func newFixture(t *testing.T, suffixes ...string) *fixture {
	t.Helper()
	renderer, err := email.NewRenderer(&config.Config{FromName: "Rahmah Exchange", AppBaseURL: "https://rahmah.test"})
	require.NoError(t, err)

	f := &fixture{
		tenants:    new(mocks.TenantRepository),
		applicants: new(mocks.ApplicantRepository),
		users:      new(mocks.UserRepository),
		documents:  new(mocks.DocumentRepository),
		store:      new(mocks.DocumentStore),
		notifier:   new(mocks.NotificationService),
		suffixes:   suffixes,
	}
	f.svc = intake.NewService(intake.Dependencies{
		Tenants:         f.tenants,
		Applicants:      f.applicants,
		Users:           f.users,
		Documents:       f.documents,
		Tx:              new(mocks.Transactor),
		Store:           f.store,
		Notifier:        f.notifier,
		Renderer:        renderer,
		Logger:          zap.NewNop(),
		MagicLinkExpiry: 24 * time.Hour,
		MaxUploadBytes:  1 << 20,
		Now:             func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
		NewSuffix: func() (string, error) {
			if len(f.suffixes) == 0 {
				return "", errors.New("no suffix")
			}
			next := f.suffixes[0]
			f.suffixes = f.suffixes[1:]
			return next, nil
		},
	})
	f.notifier.On("Send", mock.Anything, mock.Anything).Return().Maybe()
	return f
}

func validInput() domain.CreateApplicantInput {
	return domain.CreateApplicantInput{FirstName: " Amina ", LastName: "Yusuf", Email: "Amina@Example.org"}
}

func TestSubmit_PublicApplication(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture(t, "TAKEN1", "AB12CD")
	admin := domain.User{ID: uuid.New(), Email: "admin@masjid.org", FullName: "Hana", Role: domain.RoleAdmin}

	f.tenants.On("GetByID", ctx, tenantID).Return(&domain.Tenant{ID: tenantID}, nil).Once()
	f.applicants.On("ExistsByEmail", ctx, tenantID, "amina@example.org").Return(false, nil).Once()
	f.applicants.On("ExistsByCaseID", ctx, "CASE-20240301-TAKEN1").Return(true, nil).Once()
	f.applicants.On("ExistsByCaseID", ctx, "CASE-20240301-AB12CD").Return(false, nil).Once()
	f.store.On("Put", ctx, "cases/CASE-20240301-AB12CD", mock.Anything).
		Return(domain.StoredFile{StoredName: "cases/a.pdf", FileName: "lease.pdf"}, nil).Once()
	f.applicants.On("Create", ctx, mock.MatchedBy(func(a *domain.Applicant) bool {
		return a.CaseID == "CASE-20240301-AB12CD" &&
			a.Status == domain.StatusPending &&
			a.FirstName == "Amina" &&
			a.Email == "amina@example.org" &&
			!a.IsOldCase &&
			a.MagicTokenHash != nil && len(*a.MagicTokenHash) == 64 &&
			a.MagicTokenExpiresAt.Equal(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))
	})).Return(nil).Once()
	f.documents.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.users.On("ListActiveByRole", mock.Anything, tenantID, domain.RoleAdmin).Return([]domain.User{admin}, nil).Once()

	upload := document.Upload{FileName: "lease.pdf", Size: 4, MimeType: "application/pdf", Reader: strings.NewReader("%PDF")}
	applicant, err := f.svc.Submit(ctx, tenantID, nil, validInput(), []document.Upload{upload})

	require.NoError(t, err)
	assert.Equal(t, "CASE-20240301-AB12CD", applicant.CaseID)
	assert.Len(t, applicant.Documents, 1)

	notices := f.notifier.Notices()
	require.Len(t, notices, 2)
	assert.Nil(t, notices[0].UserID)
	assert.Equal(t, []string{"amina@example.org"}, notices[0].Email.To)
	assert.Contains(t, notices[0].Email.Text, "https://rahmah.test/portal?token=")
	assert.Equal(t, admin.ID, *notices[1].UserID)
	assert.Equal(t, domain.NotifCaseSubmitted, notices[1].Type)

	f.applicants.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestSubmit_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture(t, "AB12CD")

	f.tenants.On("GetByID", ctx, tenantID).Return(&domain.Tenant{ID: tenantID}, nil).Once()
	f.applicants.On("ExistsByEmail", ctx, tenantID, "amina@example.org").Return(true, nil).Once()

	_, err := f.svc.Submit(ctx, tenantID, nil, validInput(), nil)

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.applicants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmit_OldCaseIsSilent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture(t, "OLD001")
	caseworker := &domain.Actor{UserID: uuid.New(), Role: domain.RoleCaseworker, TenantID: tenantID}

	input := validInput()
	input.IsOldCase = true

	f.tenants.On("GetByID", ctx, tenantID).Return(&domain.Tenant{ID: tenantID}, nil).Once()
	f.applicants.On("ExistsByEmail", ctx, tenantID, "amina@example.org").Return(false, nil).Once()
	f.applicants.On("ExistsByCaseID", ctx, "CASE-20240301-OLD001").Return(false, nil).Once()
	f.applicants.On("Create", ctx, mock.MatchedBy(func(a *domain.Applicant) bool {
		return a.IsOldCase && a.MagicTokenHash == nil
	})).Return(nil).Once()

	applicant, err := f.svc.Submit(ctx, tenantID, caseworker, input, nil)

	require.NoError(t, err)
	assert.True(t, applicant.IsOldCase)
	assert.NotNil(t, applicant.Documents)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmit_CaseIDSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	suffixes := make([]string, 10)
	for i := range suffixes {
		suffixes[i] = fmt.Sprintf("TAKEN%d", i)
	}
	f := newFixture(t, suffixes...)

	f.tenants.On("GetByID", ctx, tenantID).Return(&domain.Tenant{ID: tenantID}, nil).Once()
	f.applicants.On("ExistsByEmail", ctx, tenantID, "amina@example.org").Return(false, nil).Once()
	f.applicants.On("ExistsByCaseID", ctx, mock.Anything).Return(true, nil).Times(10)

	_, err := f.svc.Submit(ctx, tenantID, nil, validInput(), nil)

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.applicants.AssertExpectations(t)
	f.applicants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_InsertFailureRemovesUploads(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture(t, "AB12CD")
	input := validInput()
	input.SkipEmail = true

	f.tenants.On("GetByID", ctx, tenantID).Return(&domain.Tenant{ID: tenantID}, nil).Once()
	f.applicants.On("ExistsByEmail", ctx, tenantID, "amina@example.org").Return(false, nil).Once()
	f.applicants.On("ExistsByCaseID", ctx, mock.Anything).Return(false, nil).Once()
	f.store.On("Put", ctx, mock.Anything, mock.Anything).Return(domain.StoredFile{StoredName: "cases/a.pdf"}, nil).Once()
	f.applicants.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()
	f.store.On("Remove", mock.Anything, "cases/a.pdf").Return(nil).Once()

	upload := document.Upload{FileName: "a.pdf", Size: 4, MimeType: "application/pdf", Reader: strings.NewReader("%PDF")}
	_, err := f.svc.Submit(ctx, tenantID, nil, input, []document.Upload{upload})

	assert.Error(t, err)
	f.store.AssertExpectations(t)
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Submit(ctx, uuid.New(), nil, domain.CreateApplicantInput{FirstName: "A", LastName: "B", Email: "not-an-email"}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	approver := &domain.Actor{Role: domain.RoleApprover}
	_, err = f.svc.Submit(ctx, uuid.New(), approver, validInput(), nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	tenantID := uuid.New()
	f.tenants.On("GetByID", ctx, tenantID).Return(nil, nil).Once()
	_, err = f.svc.Submit(ctx, tenantID, nil, validInput(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReissueMagicLink(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Unknown email is silent", func(t *testing.T) {
		f := newFixture(t)
		f.applicants.On("GetByEmail", ctx, tenantID, "ghost@example.org").Return(nil, nil).Once()

		assert.NoError(t, f.svc.ReissueMagicLink(ctx, tenantID, "Ghost@example.org"))
		f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Stores hash and mails raw token", func(t *testing.T) {
		f := newFixture(t)
		applicant := &domain.Applicant{ID: uuid.New(), TenantID: tenantID, CaseID: "CASE-20240301-AB12CD", FirstName: "Amina", Email: "amina@example.org"}
		var storedHash string
		f.applicants.On("GetByEmail", ctx, tenantID, "amina@example.org").Return(applicant, nil).Once()
		f.applicants.On("SetMagicToken", ctx, applicant.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) { storedHash = args.String(2) }).Return(nil).Once()

		require.NoError(t, f.svc.ReissueMagicLink(ctx, tenantID, "amina@example.org"))

		notices := f.notifier.Notices()
		require.Len(t, notices, 1)
		assert.Equal(t, domain.NotifMagicLink, notices[0].Type)
		assertTokenMatches(t, notices[0], storedHash)
	})
}

func assertTokenMatches(t *testing.T, n notification.Notice, hash string) {
	t.Helper()
	text := n.Email.Text
	i := strings.Index(text, "token=")
	require.GreaterOrEqual(t, i, 0)
	raw := text[i+len("token="):]
	if j := strings.IndexAny(raw, " \n"); j >= 0 {
		raw = raw[:j]
	}
	assert.Equal(t, hash, auth.HashToken(raw))
}
