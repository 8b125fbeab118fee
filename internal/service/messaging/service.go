package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

const maxBodyRunes = 5000

type Service interface {
	Create(ctx context.Context, actor domain.Actor, input domain.CreateConversationInput) (*domain.Conversation, error)
	Get(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) (*domain.Conversation, error)
	// ListMine returns the staff member's conversations, or the applicant's
	// conversations for their own case.
	ListMine(ctx context.Context, actor domain.Actor, params domain.PaginationParams) (domain.PaginatedResponse[domain.Conversation], error)
	ListForCase(ctx context.Context, actor domain.Actor, ref string) ([]domain.Conversation, error)
	Messages(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Message], error)
	Send(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, input domain.SendMessageInput) (*domain.Message, error)
	AddParticipant(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, input domain.AddParticipantInput) error
}

type Dependencies struct {
	Applicants    repository.ApplicantRepository
	Conversations repository.ConversationRepository
	Users         repository.UserRepository
	Tx            repository.Transactor
	Notifier      notification.Service
	Renderer      *email.Renderer
	Logger        *zap.Logger
}

type service struct {
	Dependencies
	logger *zap.Logger
}

func NewService(deps Dependencies) Service {
	return &service{
		Dependencies: deps,
		logger:       deps.Logger.Named("messaging"),
	}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, input domain.CreateConversationInput) (*domain.Conversation, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", domain.ErrValidation)
	}
	body, err := cleanBody(input.Body)
	if err != nil {
		return nil, err
	}

	applicantID := input.ApplicantID
	if actor.Role == domain.RoleApplicant {
		if actor.ApplicantID == nil {
			return nil, fmt.Errorf("%w: no case bound to this session", domain.ErrForbidden)
		}
		applicantID = *actor.ApplicantID
	} else if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: role %s may not start conversations", domain.ErrForbidden, actor.Role)
	}
	if applicantID == uuid.Nil {
		return nil, fmt.Errorf("%w: applicantId is required", domain.ErrValidation)
	}

	applicant, err := s.Applicants.GetByID(ctx, actor.TenantID, applicantID)
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return nil, fmt.Errorf("%w: case %s", domain.ErrNotFound, applicantID)
	}

	conv := &domain.Conversation{
		ID:          uuid.New(),
		TenantID:    actor.TenantID,
		ApplicantID: applicant.ID,
		Subject:     subject,
	}
	sender := senderOf(actor, applicant, conv.ID)
	conv.CreatedBy = sender.ParticipantID
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       sender.ParticipantID,
		SenderKind:     sender.Kind,
		SenderRole:     sender.Role,
		SenderName:     senderName(actor, applicant),
		Body:           body,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Conversations.Create(ctx, conv); err != nil {
			return err
		}
		members := []domain.Participant{
			{ConversationID: conv.ID, ParticipantID: applicant.ID, Kind: domain.ParticipantApplicant, Role: domain.RoleApplicant},
		}
		if sender.Kind == domain.ParticipantStaff {
			members = append(members, sender)
		}
		for i := range members {
			if _, err := s.Conversations.AddParticipant(ctx, &members[i]); err != nil {
				return err
			}
		}
		return s.post(ctx, actor, conv, msg)
	})
	if err != nil {
		return nil, err
	}

	s.fanOut(context.WithoutCancel(ctx), actor, applicant, conv, msg)
	return s.withParticipants(ctx, conv)
}

func (s *service) Get(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) (*domain.Conversation, error) {
	conv, _, err := s.access(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	return s.withParticipants(ctx, conv)
}

func (s *service) ListMine(ctx context.Context, actor domain.Actor, params domain.PaginationParams) (domain.PaginatedResponse[domain.Conversation], error) {
	params.Validate()

	if actor.Role == domain.RoleApplicant {
		if actor.ApplicantID == nil {
			return domain.PaginatedResponse[domain.Conversation]{}, fmt.Errorf("%w: no case bound to this session", domain.ErrForbidden)
		}
		convs, err := s.Conversations.ListByApplicant(ctx, *actor.ApplicantID)
		if err != nil {
			return domain.PaginatedResponse[domain.Conversation]{}, err
		}
		return domain.NewPaginatedResponse(page(convs, params), params.Page, params.PageSize, int64(len(convs))), nil
	}

	convs, total, err := s.Conversations.ListForParticipant(ctx, actor.TenantID, actor.UserID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Conversation]{}, err
	}
	return domain.NewPaginatedResponse(convs, params.Page, params.PageSize, total), nil
}

func (s *service) ListForCase(ctx context.Context, actor domain.Actor, ref string) ([]domain.Conversation, error) {
	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.OwnsApplicant(applicant.ID) {
		return nil, fmt.Errorf("%w: not your case", domain.ErrForbidden)
	}
	convs, err := s.Conversations.ListByApplicant(ctx, applicant.ID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

func (s *service) Messages(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Message], error) {
	conv, _, err := s.access(ctx, actor, conversationID)
	if err != nil {
		return domain.PaginatedResponse[domain.Message]{}, err
	}
	params.Validate()

	msgs, total, err := s.Conversations.ListMessages(ctx, conv.ID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Message]{}, err
	}
	return domain.NewPaginatedResponse(msgs, params.Page, params.PageSize, total), nil
}

func (s *service) Send(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, input domain.SendMessageInput) (*domain.Message, error) {
	body, err := cleanBody(input.Body)
	if err != nil {
		return nil, err
	}
	conv, applicant, err := s.access(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	sender := senderOf(actor, applicant, conv.ID)
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       sender.ParticipantID,
		SenderKind:     sender.Kind,
		SenderRole:     sender.Role,
		SenderName:     senderName(actor, applicant),
		Body:           body,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if sender.Kind == domain.ParticipantStaff {
			if _, err := s.Conversations.AddParticipant(ctx, &sender); err != nil {
				return err
			}
		}
		return s.post(ctx, actor, conv, msg)
	})
	if err != nil {
		return nil, err
	}

	s.fanOut(context.WithoutCancel(ctx), actor, applicant, conv, msg)
	return msg, nil
}

func (s *service) AddParticipant(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, input domain.AddParticipantInput) error {
	if !actor.IsStaff() {
		return fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	conv, _, err := s.access(ctx, actor, conversationID)
	if err != nil {
		return err
	}

	user, err := s.Users.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if user == nil || user.TenantID != actor.TenantID || !user.IsActive {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, input.UserID)
	}

	_, err = s.Conversations.AddParticipant(ctx, &domain.Participant{
		ConversationID: conv.ID,
		ParticipantID:  user.ID,
		Kind:           domain.ParticipantStaff,
		Role:           user.Role,
	})
	return err
}

// post stores the message. An applicant message also pulls every active
// admin into the conversation.
func (s *service) post(ctx context.Context, actor domain.Actor, conv *domain.Conversation, msg *domain.Message) error {
	if actor.Role == domain.RoleApplicant {
		admins, err := s.Users.ListActiveByRole(ctx, conv.TenantID, domain.RoleAdmin)
		if err != nil {
			return err
		}
		for _, admin := range admins {
			added, err := s.Conversations.AddParticipant(ctx, &domain.Participant{
				ConversationID: conv.ID,
				ParticipantID:  admin.ID,
				Kind:           domain.ParticipantStaff,
				Role:           domain.RoleAdmin,
			})
			if err != nil {
				return err
			}
			if added {
				s.logger.Debug("admin joined conversation",
					zap.String("conversation_id", conv.ID.String()),
					zap.String("user_id", admin.ID.String()),
				)
			}
		}
	}

	if err := s.Conversations.CreateMessage(ctx, msg); err != nil {
		return err
	}
	return s.Conversations.Touch(ctx, conv.ID)
}

// access loads a conversation the actor may see, with its case.
func (s *service) access(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) (*domain.Conversation, *domain.Applicant, error) {
	if !actor.IsStaff() && actor.Role != domain.RoleApplicant {
		return nil, nil, fmt.Errorf("%w: role %s", domain.ErrForbidden, actor.Role)
	}

	conv, err := s.Conversations.GetByID(ctx, actor.TenantID, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !actor.IsStaff() && !actor.OwnsApplicant(conv.ApplicantID) {
		return nil, nil, fmt.Errorf("%w: not your conversation", domain.ErrForbidden)
	}

	applicant, err := s.Applicants.GetByID(ctx, actor.TenantID, conv.ApplicantID)
	if err != nil {
		return nil, nil, err
	}
	if applicant == nil {
		return nil, nil, fmt.Errorf("%w: case %s", domain.ErrNotFound, conv.ApplicantID)
	}
	return conv, applicant, nil
}

func (s *service) withParticipants(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	participants, err := s.Conversations.ListParticipants(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	conv.Participants = participants
	return conv, nil
}

func senderOf(actor domain.Actor, applicant *domain.Applicant, conversationID uuid.UUID) domain.Participant {
	if actor.Role == domain.RoleApplicant {
		return domain.Participant{ConversationID: conversationID, ParticipantID: applicant.ID, Kind: domain.ParticipantApplicant, Role: domain.RoleApplicant}
	}
	return domain.Participant{ConversationID: conversationID, ParticipantID: actor.UserID, Kind: domain.ParticipantStaff, Role: actor.Role}
}

func senderName(actor domain.Actor, applicant *domain.Applicant) string {
	if actor.Role == domain.RoleApplicant {
		return applicant.FullName()
	}
	return actor.Name
}

func cleanBody(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", fmt.Errorf("%w: message body is required", domain.ErrValidation)
	}
	if len([]rune(body)) > maxBodyRunes {
		return "", fmt.Errorf("%w: message body exceeds %d characters", domain.ErrValidation, maxBodyRunes)
	}
	return body, nil
}

func page[T any](items []T, params domain.PaginationParams) []T {
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
