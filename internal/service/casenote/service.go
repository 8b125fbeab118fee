package casenote

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/repository"
)

type Service interface {
	List(ctx context.Context, actor domain.Actor, ref string, params domain.PaginationParams) (domain.PaginatedResponse[domain.CaseNote], error)
	Create(ctx context.Context, actor domain.Actor, ref string, input domain.CreateCaseNoteInput) (*domain.CaseNote, error)
	Update(ctx context.Context, actor domain.Actor, ref string, noteID uuid.UUID, input domain.UpdateCaseNoteInput) (*domain.CaseNote, error)
	Delete(ctx context.Context, actor domain.Actor, ref string, noteID uuid.UUID) error
}

type service struct {
	applicantRepo repository.ApplicantRepository
	noteRepo      repository.CaseNoteRepository
	auditRepo     repository.AuditLogRepository
	redis         *redis.Client
	logger        *zap.Logger
}

func NewService(applicantRepo repository.ApplicantRepository, noteRepo repository.CaseNoteRepository, auditRepo repository.AuditLogRepository, rdb *redis.Client, logger *zap.Logger) Service {
	return &service{
		applicantRepo: applicantRepo,
		noteRepo:      noteRepo,
		auditRepo:     auditRepo,
		redis:         rdb,
		logger:        logger.Named("casenote"),
	}
}

func (s *service) resolve(ctx context.Context, actor domain.Actor, ref string) (*domain.Applicant, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: case notes are internal", domain.ErrForbidden)
	}
	return repository.ResolveApplicant(ctx, s.applicantRepo, actor.TenantID, ref)
}

func (s *service) List(ctx context.Context, actor domain.Actor, ref string, params domain.PaginationParams) (domain.PaginatedResponse[domain.CaseNote], error) {
	applicant, err := s.resolve(ctx, actor, ref)
	if err != nil {
		return domain.PaginatedResponse[domain.CaseNote]{}, err
	}

	params.Validate()
	key := cache.CaseNotesKey(applicant.ID, params.Page, params.PageSize)

	var cached domain.PaginatedResponse[domain.CaseNote]
	if cache.GetJSON(ctx, s.redis, key, &cached) {
		return cached, nil
	}

	notes, total, err := s.noteRepo.ListByApplicant(ctx, applicant.ID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.CaseNote]{}, err
	}

	resp := domain.NewPaginatedResponse(notes, params.Page, params.PageSize, total)
	cache.SetJSON(ctx, s.redis, key, resp, cache.DefaultTTL)
	return resp, nil
}

func (s *service) Create(ctx context.Context, actor domain.Actor, ref string, input domain.CreateCaseNoteInput) (*domain.CaseNote, error) {
	applicant, err := s.resolve(ctx, actor, ref)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}
	if input.NoteType == "" {
		input.NoteType = domain.NoteInternal
	}
	if !input.NoteType.IsValid() {
		return nil, fmt.Errorf("%w: invalid note type %q", domain.ErrValidation, input.NoteType)
	}
	if err := checkApprovalAmount(actor, input.NoteType, input.ApprovalAmount != nil); err != nil {
		return nil, err
	}
	if input.ApprovalAmount != nil && !input.ApprovalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: approvalAmount must be positive", domain.ErrValidation)
	}

	note := &domain.CaseNote{
		ID:             uuid.New(),
		TenantID:       applicant.TenantID,
		ApplicantID:    applicant.ID,
		NoteType:       input.NoteType,
		Content:        content,
		ApprovalAmount: input.ApprovalAmount,
		AuthorID:       actor.UserID,
		AuthorName:     actor.Name,
		AuthorRole:     actor.Role,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.invalidate(ctx, applicant.ID)
	return note, nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, ref string, noteID uuid.UUID, input domain.UpdateCaseNoteInput) (*domain.CaseNote, error) {
	applicant, note, err := s.ownedNote(ctx, actor, ref, noteID)
	if err != nil {
		return nil, err
	}

	if input.Content == nil && input.ApprovalAmount == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
		}
		note.Content = content
	}
	if input.ApprovalAmount != nil {
		if err := checkApprovalAmount(actor, note.NoteType, true); err != nil {
			return nil, err
		}
		if !input.ApprovalAmount.IsPositive() {
			return nil, fmt.Errorf("%w: approvalAmount must be positive", domain.ErrValidation)
		}
		note.ApprovalAmount = input.ApprovalAmount
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}

	s.invalidate(ctx, applicant.ID)
	return note, nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, ref string, noteID uuid.UUID) error {
	applicant, note, err := s.ownedNote(ctx, actor, ref, noteID)
	if err != nil {
		return err
	}

	if err := s.noteRepo.Delete(ctx, note.ID); err != nil {
		return err
	}

	if err := repository.CreateAuditLog(ctx, s.auditRepo, domain.CreateAuditLogInput{
		Actor:      actor,
		Action:     domain.AuditNoteDeleted,
		EntityType: "case_note",
		EntityID:   note.ID,
		OldValue:   note,
	}); err != nil {
		s.logger.Warn("failed to audit note deletion", zap.String("note_id", note.ID.String()), zap.Error(err))
	}

	s.invalidate(ctx, applicant.ID)
	return nil
}

// ownedNote loads a note of the case and checks the caller is its author or
// an admin.
func (s *service) ownedNote(ctx context.Context, actor domain.Actor, ref string, noteID uuid.UUID) (*domain.Applicant, *domain.CaseNote, error) {
	applicant, err := s.resolve(ctx, actor, ref)
	if err != nil {
		return nil, nil, err
	}

	note, err := s.noteRepo.GetByID(ctx, actor.TenantID, noteID)
	if err != nil {
		return nil, nil, err
	}
	if note == nil || note.ApplicantID != applicant.ID {
		return nil, nil, fmt.Errorf("%w: note %s", domain.ErrNotFound, noteID)
	}
	if note.AuthorID != actor.UserID && actor.Role != domain.RoleAdmin {
		return nil, nil, fmt.Errorf("%w: only the author or an admin may change this note", domain.ErrForbidden)
	}
	return applicant, note, nil
}

func checkApprovalAmount(actor domain.Actor, noteType domain.NoteType, hasAmount bool) error {
	if !hasAmount {
		return nil
	}
	if noteType != domain.NoteApproval {
		return fmt.Errorf("%w: approvalAmount is only allowed on approval notes", domain.ErrValidation)
	}
	if actor.Role != domain.RoleApprover {
		return fmt.Errorf("%w: only approvers may set approvalAmount", domain.ErrForbidden)
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, applicantID uuid.UUID) {
	cache.InvalidatePattern(ctx, s.redis, cache.CaseNotesPattern(applicantID))
}
