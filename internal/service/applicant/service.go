package applicant

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
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/notification"
)

// Service covers reading, listing and removing case records and the
// caseworker assignments on them.
type Service interface {
	Get(ctx context.Context, actor domain.Actor, ref string) (*domain.Applicant, error)
	List(ctx context.Context, actor domain.Actor, filter domain.ApplicantFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.Applicant], error)
	Delete(ctx context.Context, actor domain.Actor, ref string) error

	Assign(ctx context.Context, actor domain.Actor, ref string, input domain.AssignCaseInput) (*domain.CaseAssignment, error)
	Unassign(ctx context.Context, actor domain.Actor, ref string, userID uuid.UUID) error
	ListAssignments(ctx context.Context, actor domain.Actor, ref string) ([]domain.CaseAssignment, error)
}

type Dependencies struct {
	Applicants  repository.ApplicantRepository
	Documents   repository.DocumentRepository
	Assignments repository.AssignmentRepository
	Users       repository.UserRepository
	AuditLogs   repository.AuditLogRepository
	Tx          repository.Transactor
	Store       document.Store
	Notifier    notification.Service
	Redis       *redis.Client
	Logger      *zap.Logger
}

type service struct {
	Dependencies
	logger *zap.Logger
}

func NewService(deps Dependencies) Service {
	return &service{
		Dependencies: deps,
		logger:       deps.Logger.Named("applicant"),
	}
}

func (s *service) Get(ctx context.Context, actor domain.Actor, ref string) (*domain.Applicant, error) {
	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.OwnsApplicant(applicant.ID) {
		return nil, fmt.Errorf("%w: not your case", domain.ErrForbidden)
	}

	docs, err := s.Documents.ListByApplicant(ctx, applicant.ID, domain.DocumentCase)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	applicant.Documents = docs
	return applicant, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, filter domain.ApplicantFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.Applicant], error) {
	if !actor.IsStaff() {
		return domain.PaginatedResponse[domain.Applicant]{}, fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return domain.PaginatedResponse[domain.Applicant]{}, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, *filter.Status)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	params.Validate()

	applicants, total, err := s.Applicants.List(ctx, actor.TenantID, filter, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Applicant]{}, err
	}
	return domain.NewPaginatedResponse(applicants, params.Page, params.PageSize, total), nil
}

// Delete removes the case and its rows. Stored files are removed afterwards
// on a best-effort basis.
func (s *service) Delete(ctx context.Context, actor domain.Actor, ref string) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins may delete cases", domain.ErrForbidden)
	}
	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return err
	}

	caseDocs, err := s.Documents.ListByApplicant(ctx, applicant.ID, "")
	if err != nil {
		return err
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Applicants.Delete(ctx, actor.TenantID, applicant.ID); err != nil {
			return err
		}
		return repository.CreateAuditLog(ctx, s.AuditLogs, domain.CreateAuditLogInput{
			Actor:      actor,
			Action:     domain.AuditCaseDeleted,
			EntityType: "applicant",
			EntityID:   applicant.ID,
			OldValue:   map[string]any{"caseId": applicant.CaseID, "status": applicant.Status, "email": applicant.Email},
		})
	})
	if err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	for _, d := range caseDocs {
		if err := s.Store.Remove(bg, d.StoredName); err != nil {
			s.logger.Warn("failed to remove stored document",
				zap.String("case_id", applicant.CaseID),
				zap.String("stored_name", d.StoredName),
				zap.Error(err),
			)
		}
	}
	cache.Delete(bg, s.Redis, cache.DashboardKey(actor.TenantID))
	cache.InvalidatePattern(bg, s.Redis, cache.CaseNotesPattern(applicant.ID))
	return nil
}

func (s *service) Assign(ctx context.Context, actor domain.Actor, ref string, input domain.AssignCaseInput) (*domain.CaseAssignment, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins may assign cases", domain.ErrForbidden)
	}
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TenantID != actor.TenantID {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, input.UserID)
	}
	if !user.IsActive || user.Role != domain.RoleCaseworker {
		return nil, fmt.Errorf("%w: cases can only be assigned to active caseworkers", domain.ErrValidation)
	}

	assignment := &domain.CaseAssignment{
		ID:          uuid.New(),
		TenantID:    actor.TenantID,
		ApplicantID: applicant.ID,
		UserID:      user.ID,
		AssignedBy:  actor.UserID,
		UserName:    &user.FullName,
		UserEmail:   &user.Email,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Assignments.Assign(ctx, assignment); err != nil {
			return err
		}
		return repository.CreateAuditLog(ctx, s.AuditLogs, domain.CreateAuditLogInput{
			Actor:      actor,
			Action:     domain.AuditCaseAssigned,
			EntityType: "applicant",
			EntityID:   applicant.ID,
			NewValue:   map[string]string{"userId": user.ID.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Send(context.WithoutCancel(ctx), notification.Notice{
		TenantID: actor.TenantID,
		UserID:   &user.ID,
		Type:     domain.NotifCaseAssigned,
		Title:    "Case assigned: " + applicant.CaseID,
		Message:  fmt.Sprintf("You have been assigned the case of %s.", applicant.FullName()),
		Data:     map[string]string{"applicantId": applicant.ID.String(), "caseId": applicant.CaseID},
	})
	return assignment, nil
}

func (s *service) Unassign(ctx context.Context, actor domain.Actor, ref string, userID uuid.UUID) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins may unassign cases", domain.ErrForbidden)
	}
	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return err
	}

	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Assignments.Unassign(ctx, applicant.ID, userID); err != nil {
			return err
		}
		return repository.CreateAuditLog(ctx, s.AuditLogs, domain.CreateAuditLogInput{
			Actor:      actor,
			Action:     domain.AuditCaseUnassigned,
			EntityType: "applicant",
			EntityID:   applicant.ID,
			OldValue:   map[string]string{"userId": userID.String()},
		})
	})
}

func (s *service) ListAssignments(ctx context.Context, actor domain.Actor, ref string) ([]domain.CaseAssignment, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return nil, err
	}
	assignments, err := s.Assignments.ListActiveByApplicant(ctx, applicant.ID)
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []domain.CaseAssignment{}
	}
	return assignments, nil
}
