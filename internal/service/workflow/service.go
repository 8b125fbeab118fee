package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

const (
	recentApprovalNotes = 5
	rejectionNoteWindow = 24 * time.Hour
	rejectionNoteLimit  = 10
)

type Service interface {
	// UpdateApplicant applies a partial case update. ref is the case UUID or
	// its human-readable case ID.
	UpdateApplicant(ctx context.Context, actor domain.Actor, ref string, raw map[string]json.RawMessage) (*domain.Applicant, error)
	// UpsertGrant creates the case grant or updates it in place. The bool
	// reports whether a new grant was created.
	UpsertGrant(ctx context.Context, actor domain.Actor, input domain.UpsertGrantInput) (*domain.Grant, bool, error)
	GetGrant(ctx context.Context, actor domain.Actor, applicantID uuid.UUID) (*domain.Grant, error)
}

type Dependencies struct {
	Applicants  repository.ApplicantRepository
	Grants      repository.GrantRepository
	Notes       repository.CaseNoteRepository
	Assignments repository.AssignmentRepository
	Users       repository.UserRepository
	Documents   repository.DocumentRepository
	AuditLogs   repository.AuditLogRepository
	Tx          repository.Transactor
	Notifier    notification.Service
	Renderer    *email.Renderer
	Redis       *redis.Client
	Logger      *zap.Logger
	Now         func() time.Time
}

type service struct {
	Dependencies
	logger *zap.Logger
}

func NewService(deps Dependencies) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		Dependencies: deps,
		logger:       deps.Logger.Named("workflow"),
	}
}

// statusChange is a committed case status transition whose side effects are
// still pending.
type statusChange struct {
	actor     domain.Actor
	applicant *domain.Applicant
	from      domain.CaseStatus
	to        domain.CaseStatus
}

func (s *service) UpdateApplicant(ctx context.Context, actor domain.Actor, ref string, raw map[string]json.RawMessage) (*domain.Applicant, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff may update cases", domain.ErrForbidden)
	}

	applicant, err := repository.ResolveApplicant(ctx, s.Applicants, actor.TenantID, ref)
	if err != nil {
		return nil, err
	}

	patch, err := domain.ParseApplicantPatch(raw)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeCaseUpdate(actor.Role, patch); err != nil {
		return nil, err
	}

	from := applicant.Status
	statusChanged := patch.Status != nil && *patch.Status != from
	if !patch.HasCaseData() && !statusChanged {
		return s.withDocuments(ctx, applicant)
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if patch.HasCaseData() {
			if err := s.Applicants.UpdateFields(ctx, applicant.ID, patch.Columns); err != nil {
				if repository.IsUniqueViolation(err) {
					return fmt.Errorf("%w: email already belongs to another case", domain.ErrConflict)
				}
				return err
			}
			if err := s.audit(ctx, actor, domain.AuditCaseUpdated, "applicant", applicant.ID, nil, patch.Keys); err != nil {
				return err
			}
		}
		if statusChanged {
			return s.applyStatus(ctx, actor, applicant, *patch.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Applicants.GetByID(ctx, actor.TenantID, applicant.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: case %s", domain.ErrNotFound, ref)
	}

	if statusChanged {
		s.afterStatusChange(ctx, statusChange{actor: actor, applicant: updated, from: from, to: updated.Status})
	}

	return s.withDocuments(ctx, updated)
}

// applyStatus writes a status transition and its bookkeeping. It must run
// inside a transaction: the case, its grant mirror and the trail change together.
func (s *service) applyStatus(ctx context.Context, actor domain.Actor, applicant *domain.Applicant, to domain.CaseStatus) error {
	from := applicant.Status
	if err := s.Applicants.UpdateStatus(ctx, applicant.ID, to); err != nil {
		return err
	}

	if to.IsDecision() {
		grant, err := s.Grants.GetByApplicant(ctx, applicant.ID)
		if err != nil {
			return err
		}
		if grant != nil && grant.Status != domain.GrantStatus(to) {
			grant.Status = domain.GrantStatus(to)
			grant.UpdatedBy = actor.UserID
			if err := s.Grants.Update(ctx, grant); err != nil {
				return err
			}
		}
	}

	note := &domain.CaseNote{
		ID:          uuid.New(),
		TenantID:    applicant.TenantID,
		ApplicantID: applicant.ID,
		NoteType:    domain.NoteStatusUpdate,
		Content:     fmt.Sprintf("Status changed from %s to %s", from, to),
		AuthorID:    actor.UserID,
		AuthorName:  actor.Name,
		AuthorRole:  actor.Role,
	}
	if err := s.Notes.Create(ctx, note); err != nil {
		return err
	}

	return s.audit(ctx, actor, domain.AuditCaseStatusChanged, "applicant", applicant.ID,
		map[string]string{"status": string(from)}, map[string]string{"status": string(to)})
}

func (s *service) UpsertGrant(ctx context.Context, actor domain.Actor, input domain.UpsertGrantInput) (*domain.Grant, bool, error) {
	input.Canonicalize()

	if input.ApplicantID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: applicantId is required", domain.ErrValidation)
	}
	if err := validateGrantValues(input); err != nil {
		return nil, false, err
	}
	if err := AuthorizeGrantUpsert(actor.Role, input); err != nil {
		return nil, false, err
	}

	applicant, err := s.Applicants.GetByID(ctx, actor.TenantID, input.ApplicantID)
	if err != nil {
		return nil, false, err
	}
	if applicant == nil {
		return nil, false, fmt.Errorf("%w: case %s", domain.ErrNotFound, input.ApplicantID)
	}

	existing, err := s.Grants.GetByApplicant(ctx, applicant.ID)
	if err != nil {
		return nil, false, err
	}

	requested, validStatus := input.RequestedStatus()
	created := existing == nil
	if created && input.GrantedAmount == nil && input.NumberOfMonths == nil {
		return nil, false, fmt.Errorf("%w: grantedAmount or numberOfMonths is required", domain.ErrValidation)
	}
	if !created && len(input.GrantFields()) == 0 && !validStatus {
		return nil, false, fmt.Errorf("%w: no grant fields to update", domain.ErrValidation)
	}

	grant := existing
	var before interface{}
	if created {
		grant = &domain.Grant{
			ID:          uuid.New(),
			TenantID:    applicant.TenantID,
			ApplicantID: applicant.ID,
			Status:      domain.GrantPending,
			CreatedBy:   actor.UserID,
		}
	} else {
		snapshot := *existing
		before = &snapshot
	}
	if input.GrantedAmount != nil {
		grant.GrantedAmount = input.GrantedAmount
	}
	if input.NumberOfMonths != nil {
		grant.NumberOfMonths = input.NumberOfMonths
	}
	if input.Remarks != nil {
		grant.Remarks = input.Remarks
	}
	if validStatus {
		grant.Status = requested
	}
	grant.UpdatedBy = actor.UserID

	var change *statusChange
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if created {
			if err := s.Grants.Create(ctx, grant); err != nil {
				return err
			}
		} else if err := s.Grants.Update(ctx, grant); err != nil {
			return err
		}

		if grant.Status == domain.GrantApproved && applicant.Status != domain.StatusApproved {
			if err := s.applyStatus(ctx, actor, applicant, domain.StatusApproved); err != nil {
				return err
			}
			change = &statusChange{actor: actor, from: applicant.Status, to: domain.StatusApproved}
		}

		return s.audit(ctx, actor, domain.AuditGrantUpserted, "grant", grant.ID, before, grant)
	})
	if err != nil {
		return nil, false, err
	}

	cache.Delete(ctx, s.Redis, cache.DashboardKey(applicant.TenantID))
	if change != nil {
		synced := *applicant
		synced.Status = domain.StatusApproved
		change.applicant = &synced
		s.afterStatusChange(ctx, *change)
	}

	docs, err := s.Documents.ListByGrant(ctx, grant.ID)
	if err != nil {
		s.logger.Warn("failed to load grant documents", zap.String("grant_id", grant.ID.String()), zap.Error(err))
	}
	grant.PaymentDocuments = nonNilDocs(docs)

	return grant, created, nil
}

func validateGrantValues(in domain.UpsertGrantInput) error {
	if in.GrantedAmount != nil && in.GrantedAmount.IsNegative() {
		return fmt.Errorf("%w: grantedAmount must not be negative", domain.ErrValidation)
	}
	if in.NumberOfMonths != nil && *in.NumberOfMonths < 1 {
		return fmt.Errorf("%w: numberOfMonths must be at least 1", domain.ErrValidation)
	}
	return nil
}

func (s *service) GetGrant(ctx context.Context, actor domain.Actor, applicantID uuid.UUID) (*domain.Grant, error) {
	if !actor.IsStaff() && !actor.OwnsApplicant(applicantID) {
		return nil, fmt.Errorf("%w: not your case", domain.ErrForbidden)
	}

	applicant, err := s.Applicants.GetByID(ctx, actor.TenantID, applicantID)
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return nil, fmt.Errorf("%w: case %s", domain.ErrNotFound, applicantID)
	}

	grant, err := s.Grants.GetByApplicant(ctx, applicant.ID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, fmt.Errorf("%w: no grant for case %s", domain.ErrNotFound, applicant.CaseID)
	}

	docs, err := s.Documents.ListByGrant(ctx, grant.ID)
	if err != nil {
		return nil, err
	}
	grant.PaymentDocuments = nonNilDocs(docs)
	return grant, nil
}

func (s *service) withDocuments(ctx context.Context, applicant *domain.Applicant) (*domain.Applicant, error) {
	docs, err := s.Documents.ListByApplicant(ctx, applicant.ID, domain.DocumentCase)
	if err != nil {
		return nil, err
	}
	applicant.Documents = nonNilDocs(docs)
	return applicant, nil
}

func (s *service) audit(ctx context.Context, actor domain.Actor, action, entityType string, entityID uuid.UUID, oldValue, newValue interface{}) error {
	return repository.CreateAuditLog(ctx, s.AuditLogs, domain.CreateAuditLogInput{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

func nonNilDocs(docs []domain.Document) []domain.Document {
	if docs == nil {
		return []domain.Document{}
	}
	return docs
}

func amountOf(note *domain.CaseNote) *decimal.Decimal {
	if note == nil {
		return nil
	}
	return note.ApprovalAmount
}
