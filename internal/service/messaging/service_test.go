package messaging_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/messaging"
)

type fixture struct {
	applicants    *mocks.ApplicantRepository
	conversations *mocks.ConversationRepository
	users         *mocks.UserRepository
	notifier      *mocks.NotificationService
	svc           messaging.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	renderer, err := email.NewRenderer(&config.Config{FromName: "Rahmah Exchange", AppBaseURL: "https://rahmah.test"})
	require.NoError(t, err)

	f := &fixture{
		applicants:    new(mocks.ApplicantRepository),
		conversations: new(mocks.ConversationRepository),
		users:         new(mocks.UserRepository),
		notifier:      new(mocks.NotificationService),
	}
	f.svc = messaging.NewService(messaging.Dependencies{
		Applicants:    f.applicants,
		Conversations: f.conversations,
		Users:         f.users,
		Tx:            new(mocks.Transactor),
		Notifier:      f.notifier,
		Renderer:      renderer,
		Logger:        zap.NewNop(),
	})
	f.notifier.On("Send", mock.Anything, mock.Anything).Return().Maybe()
	f.conversations.On("CreateMessage", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.conversations.On("Touch", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

type scene struct {
	tenantID   uuid.UUID
	applicant  *domain.Applicant
	conv       *domain.Conversation
	admin      domain.User
	caseworker domain.User
	treasurer  domain.User
}

func newScene() scene {
	tenantID := uuid.New()
	applicant := &domain.Applicant{
		ID: uuid.New(), TenantID: tenantID, CaseID: "CASE-20240301-AB12CD",
		FirstName: "Amina", LastName: "Yusuf", Email: "amina@example.org",
	}
	return scene{
		tenantID:   tenantID,
		applicant:  applicant,
		conv:       &domain.Conversation{ID: uuid.New(), TenantID: tenantID, ApplicantID: applicant.ID, Subject: "Rent documents"},
		admin:      domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleAdmin, IsActive: true, Email: "admin@masjid.org", FullName: "Hana"},
		caseworker: domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleCaseworker, IsActive: true, Email: "zaid@masjid.org", FullName: "Zaid"},
		treasurer:  domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTreasurer, IsActive: true, Email: "t@masjid.org", FullName: "Omar"},
	}
}

func (s scene) participants() []domain.Participant {
	return []domain.Participant{
		{ConversationID: s.conv.ID, ParticipantID: s.applicant.ID, Kind: domain.ParticipantApplicant, Role: domain.RoleApplicant},
		{ConversationID: s.conv.ID, ParticipantID: s.caseworker.ID, Kind: domain.ParticipantStaff, Role: domain.RoleCaseworker},
		{ConversationID: s.conv.ID, ParticipantID: s.treasurer.ID, Kind: domain.ParticipantStaff, Role: domain.RoleTreasurer},
		{ConversationID: s.conv.ID, ParticipantID: s.admin.ID, Kind: domain.ParticipantStaff, Role: domain.RoleAdmin},
	}
}

func TestSend_ApplicantMessage(t *testing.T) {
	ctx := context.Background()
	s := newScene()
	f := newFixture(t)
	actor := domain.Actor{Role: domain.RoleApplicant, TenantID: s.tenantID, ApplicantID: &s.applicant.ID}

	f.conversations.On("GetByID", ctx, s.tenantID, s.conv.ID).Return(s.conv, nil).Once()
	f.applicants.On("GetByID", ctx, s.tenantID, s.applicant.ID).Return(s.applicant, nil).Once()
	f.users.On("ListActiveByRole", ctx, s.tenantID, domain.RoleAdmin).Return([]domain.User{s.admin}, nil).Once()
	f.conversations.On("AddParticipant", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.ParticipantID == s.admin.ID && p.Role == domain.RoleAdmin && p.ConversationID == s.conv.ID
	})).Return(true, nil).Once()
	f.conversations.On("ListParticipants", mock.Anything, s.conv.ID).Return(s.participants(), nil).Once()
	f.users.On("ListByIDs", mock.Anything, s.tenantID, []uuid.UUID{s.caseworker.ID, s.treasurer.ID, s.admin.ID}).
		Return([]domain.User{s.caseworker, s.treasurer, s.admin}, nil).Once()

	msg, err := f.svc.Send(ctx, actor, s.conv.ID, domain.SendMessageInput{Body: "  I uploaded the lease.  "})

	require.NoError(t, err)
	assert.Equal(t, "I uploaded the lease.", msg.Body)
	assert.Equal(t, "Amina Yusuf", msg.SenderName)
	assert.Equal(t, domain.ParticipantApplicant, msg.SenderKind)

	notices := f.notifier.Notices()
	require.Len(t, notices, 2)
	for _, n := range notices {
		require.NotNil(t, n.UserID)
		assert.NotEqual(t, s.applicant.ID, *n.UserID)
		assert.NotEqual(t, s.treasurer.ID, *n.UserID)
		assert.Equal(t, domain.NotifNewMessage, n.Type)
		assert.Contains(t, n.Email.Text, "https://rahmah.test/dashboard/cases/CASE-20240301-AB12CD")
	}
	f.conversations.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestSend_ApplicantMessageUsesCurrentRoles(t *testing.T) {
	ctx := context.Background()
	s := newScene()
	f := newFixture(t)
	actor := domain.Actor{Role: domain.RoleApplicant, TenantID: s.tenantID, ApplicantID: &s.applicant.ID}

	// Joined as caseworker, now a treasurer; joined as treasurer, now an admin.
	demoted := s.caseworker
	demoted.Role = domain.RoleTreasurer
	promoted := s.treasurer
	promoted.Role = domain.RoleAdmin

	f.conversations.On("GetByID", ctx, s.tenantID, s.conv.ID).Return(s.conv, nil).Once()
	f.applicants.On("GetByID", ctx, s.tenantID, s.applicant.ID).Return(s.applicant, nil).Once()
	f.users.On("ListActiveByRole", ctx, s.tenantID, domain.RoleAdmin).Return([]domain.User{s.admin}, nil).Once()
	f.conversations.On("AddParticipant", ctx, mock.Anything).Return(false, nil).Once()
	f.conversations.On("ListParticipants", mock.Anything, s.conv.ID).Return(s.participants(), nil).Once()
	f.users.On("ListByIDs", mock.Anything, s.tenantID, mock.Anything).
		Return([]domain.User{demoted, promoted, s.admin}, nil).Once()

	_, err := f.svc.Send(ctx, actor, s.conv.ID, domain.SendMessageInput{Body: "Any update?"})

	require.NoError(t, err)
	var notified []uuid.UUID
	for _, n := range f.notifier.Notices() {
		notified = append(notified, *n.UserID)
	}
	assert.ElementsMatch(t, []uuid.UUID{promoted.ID, s.admin.ID}, notified)
}

func TestSend_StaffMessageEmailsApplicant(t *testing.T) {
	ctx := context.Background()
	s := newScene()
	f := newFixture(t)
	actor := domain.Actor{UserID: s.caseworker.ID, Role: domain.RoleCaseworker, TenantID: s.tenantID, Name: "Zaid"}

	f.conversations.On("GetByID", ctx, s.tenantID, s.conv.ID).Return(s.conv, nil).Once()
	f.applicants.On("GetByID", ctx, s.tenantID, s.applicant.ID).Return(s.applicant, nil).Once()
	f.conversations.On("AddParticipant", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.ParticipantID == s.caseworker.ID && p.Kind == domain.ParticipantStaff
	})).Return(false, nil).Once()

	_, err := f.svc.Send(ctx, actor, s.conv.ID, domain.SendMessageInput{Body: "Please upload your lease."})

	require.NoError(t, err)
	notices := f.notifier.Notices()
	require.Len(t, notices, 1)
	assert.Nil(t, notices[0].UserID)
	assert.Equal(t, []string{"amina@example.org"}, notices[0].Email.To)
	assert.Contains(t, notices[0].Email.Text, "https://rahmah.test/portal")
	f.users.AssertNotCalled(t, "ListActiveByRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_OtherApplicantForbidden(t *testing.T) {
	ctx := context.Background()
	s := newScene()
	f := newFixture(t)
	stranger := uuid.New()
	actor := domain.Actor{Role: domain.RoleApplicant, TenantID: s.tenantID, ApplicantID: &stranger}

	f.conversations.On("GetByID", ctx, s.tenantID, s.conv.ID).Return(s.conv, nil).Once()

	_, err := f.svc.Send(ctx, actor, s.conv.ID, domain.SendMessageInput{Body: "hello"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSend_Validation(t *testing.T) {
	f := newFixture(t)
	actor := domain.Actor{Role: domain.RoleAdmin, TenantID: uuid.New()}

	_, err := f.svc.Send(context.Background(), actor, uuid.New(), domain.SendMessageInput{Body: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Send(context.Background(), actor, uuid.New(), domain.SendMessageInput{Body: strings.Repeat("a", 5001)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreate_ApplicantStartsConversation(t *testing.T) {
	ctx := context.Background()
	s := newScene()
	f := newFixture(t)
	actor := domain.Actor{Role: domain.RoleApplicant, TenantID: s.tenantID, ApplicantID: &s.applicant.ID}

	f.applicants.On("GetByID", ctx, s.tenantID, s.applicant.ID).Return(s.applicant, nil).Once()
	f.conversations.On("Create", ctx, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.ApplicantID == s.applicant.ID && c.CreatedBy == s.applicant.ID && c.Subject == "Question"
	})).Return(nil).Once()
	f.conversations.On("AddParticipant", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.Kind == domain.ParticipantApplicant
	})).Return(true, nil).Once()
	f.users.On("ListActiveByRole", ctx, s.tenantID, domain.RoleAdmin).Return([]domain.User{s.admin}, nil).Once()
	f.conversations.On("AddParticipant", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.ParticipantID == s.admin.ID
	})).Return(true, nil).Once()
	participants := []domain.Participant{
		{ParticipantID: s.applicant.ID, Kind: domain.ParticipantApplicant, Role: domain.RoleApplicant},
		{ParticipantID: s.admin.ID, Kind: domain.ParticipantStaff, Role: domain.RoleAdmin},
	}
	f.conversations.On("ListParticipants", mock.Anything, mock.Anything).Return(participants, nil)
	f.users.On("ListByIDs", mock.Anything, s.tenantID, []uuid.UUID{s.admin.ID}).Return([]domain.User{s.admin}, nil).Once()

	conv, err := f.svc.Create(ctx, actor, domain.CreateConversationInput{ApplicantID: uuid.New(), Subject: " Question ", Body: "When will I hear back?"})

	require.NoError(t, err)
	assert.Len(t, conv.Participants, 2)
	notices := f.notifier.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, s.admin.ID, *notices[0].UserID)
}

func TestListMine_ApplicantPaginatesOwnCase(t *testing.T) {
	ctx := context.Background()
	s := newScene()
	f := newFixture(t)
	actor := domain.Actor{Role: domain.RoleApplicant, TenantID: s.tenantID, ApplicantID: &s.applicant.ID}

	convs := []domain.Conversation{{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}}
	f.conversations.On("ListByApplicant", ctx, s.applicant.ID).Return(convs, nil).Once()

	resp, err := f.svc.ListMine(ctx, actor, domain.PaginationParams{Page: 2, PageSize: 2})

	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int64(3), resp.TotalItems)
	assert.Equal(t, convs[2].ID, resp.Data[0].ID)
}
