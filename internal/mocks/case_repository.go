package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rahmah-exchange/internal/domain"
)

type CaseNoteRepository struct {
	mock.Mock
}

func (m *CaseNoteRepository) Create(ctx context.Context, note *domain.CaseNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *CaseNoteRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.CaseNote, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaseNote), args.Error(1)
}

func (m *CaseNoteRepository) Update(ctx context.Context, note *domain.CaseNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *CaseNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CaseNoteRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, params domain.PaginationParams) ([]domain.CaseNote, int64, error) {
	args := m.Called(ctx, applicantID, params)
	return args.Get(0).([]domain.CaseNote), args.Get(1).(int64), args.Error(2)
}

func (m *CaseNoteRepository) LatestApprovalNote(ctx context.Context, applicantID uuid.UUID) (*domain.CaseNote, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaseNote), args.Error(1)
}

func (m *CaseNoteRepository) ListRecentByType(ctx context.Context, applicantID uuid.UUID, noteType domain.NoteType, limit int) ([]domain.CaseNote, error) {
	args := m.Called(ctx, applicantID, noteType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaseNote), args.Error(1)
}

func (m *CaseNoteRepository) ListSince(ctx context.Context, applicantID uuid.UUID, since time.Time, limit int) ([]domain.CaseNote, error) {
	args := m.Called(ctx, applicantID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaseNote), args.Error(1)
}

type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) Assign(ctx context.Context, assignment *domain.CaseAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *AssignmentRepository) Unassign(ctx context.Context, applicantID, userID uuid.UUID) error {
	args := m.Called(ctx, applicantID, userID)
	return args.Error(0)
}

func (m *AssignmentRepository) ListActiveByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.CaseAssignment, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaseAssignment), args.Error(1)
}

func (m *AssignmentRepository) ListAssignedUsers(ctx context.Context, applicantID uuid.UUID, role domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, applicantID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *ConversationRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *ConversationRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Conversation, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *ConversationRepository) ListForParticipant(ctx context.Context, tenantID, participantID uuid.UUID, params domain.PaginationParams) ([]domain.Conversation, int64, error) {
	args := m.Called(ctx, tenantID, participantID, params)
	return args.Get(0).([]domain.Conversation), args.Get(1).(int64), args.Error(2)
}

func (m *ConversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ConversationRepository) AddParticipant(ctx context.Context, p *domain.Participant) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepository) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}

func (m *ConversationRepository) IsParticipant(ctx context.Context, conversationID, participantID uuid.UUID) (bool, error) {
	args := m.Called(ctx, conversationID, participantID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, params domain.PaginationParams) ([]domain.Message, int64, error) {
	args := m.Called(ctx, conversationID, params)
	return args.Get(0).([]domain.Message), args.Get(1).(int64), args.Error(2)
}
