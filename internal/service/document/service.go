package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
)

type Service interface {
	ListCaseDocuments(ctx context.Context, actor domain.Actor, ref string) ([]domain.Document, error)
	UploadCaseDocuments(ctx context.Context, actor domain.Actor, ref string, uploads []Upload) ([]domain.Document, error)
	DeleteCaseDocument(ctx context.Context, actor domain.Actor, ref string, documentID uuid.UUID) error
	UploadGrantDocuments(ctx context.Context, actor domain.Actor, grantID uuid.UUID, uploads []Upload) ([]domain.Document, error)
}

type service struct {
	applicantRepo repository.ApplicantRepository
	grantRepo     repository.GrantRepository
	documentRepo  repository.DocumentRepository
	tx            repository.Transactor
	store         Store
	maxBytes      int64
	logger        *zap.Logger
}

func NewService(applicantRepo repository.ApplicantRepository, grantRepo repository.GrantRepository, documentRepo repository.DocumentRepository, tx repository.Transactor, store Store, maxBytes int64, logger *zap.Logger) Service {
	return &service{
		applicantRepo: applicantRepo,
		grantRepo:     grantRepo,
		documentRepo:  documentRepo,
		tx:            tx,
		store:         store,
		maxBytes:      maxBytes,
		logger:        logger.Named("document"),
	}
}

func (s *service) resolve(ctx context.Context, actor domain.Actor, ref string) (*domain.Applicant, error) {
	applicant, err := repository.ResolveApplicant(ctx, s.applicantRepo, actor.TenantID, ref)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.OwnsApplicant(applicant.ID) {
		return nil, fmt.Errorf("%w: not your case", domain.ErrForbidden)
	}
	return applicant, nil
}

func (s *service) ListCaseDocuments(ctx context.Context, actor domain.Actor, ref string) ([]domain.Document, error) {
	applicant, err := s.resolve(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	docs, err := s.documentRepo.ListByApplicant(ctx, applicant.ID, domain.DocumentCase)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (s *service) UploadCaseDocuments(ctx context.Context, actor domain.Actor, ref string, uploads []Upload) ([]domain.Document, error) {
	if actor.IsStaff() && !actor.HasAnyRole(domain.RoleCaseworker, domain.RoleAdmin) {
		return nil, fmt.Errorf("%w: role %s may not upload case documents", domain.ErrForbidden, actor.Role)
	}
	applicant, err := s.resolve(ctx, actor, ref)
	if err != nil {
		return nil, err
	}

	var uploadedBy *uuid.UUID
	if actor.IsStaff() {
		uploadedBy = &actor.UserID
	}
	return s.save(ctx, applicant, nil, domain.DocumentCase, "cases/"+applicant.CaseID, uploads, uploadedBy)
}

func (s *service) DeleteCaseDocument(ctx context.Context, actor domain.Actor, ref string, documentID uuid.UUID) error {
	if !actor.HasAnyRole(domain.RoleCaseworker, domain.RoleAdmin) {
		return fmt.Errorf("%w: role %s may not delete case documents", domain.ErrForbidden, actor.Role)
	}
	applicant, err := s.resolve(ctx, actor, ref)
	if err != nil {
		return err
	}

	doc, err := s.documentRepo.GetByID(ctx, actor.TenantID, documentID)
	if err != nil {
		return err
	}
	if doc == nil || doc.ApplicantID != applicant.ID {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}

	if err := s.documentRepo.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, doc.StoredName); err != nil {
		s.logger.Warn("failed to remove stored document", zap.String("stored_name", doc.StoredName), zap.Error(err))
	}
	return nil
}

func (s *service) UploadGrantDocuments(ctx context.Context, actor domain.Actor, grantID uuid.UUID, uploads []Upload) ([]domain.Document, error) {
	if !actor.HasAnyRole(domain.RoleAdmin, domain.RoleTreasurer) {
		return nil, fmt.Errorf("%w: role %s may not upload payment documents", domain.ErrForbidden, actor.Role)
	}

	grant, err := s.grantRepo.GetByID(ctx, actor.TenantID, grantID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, fmt.Errorf("%w: grant %s", domain.ErrNotFound, grantID)
	}
	applicant, err := s.applicantRepo.GetByID(ctx, actor.TenantID, grant.ApplicantID)
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return nil, fmt.Errorf("%w: case %s", domain.ErrNotFound, grant.ApplicantID)
	}

	return s.save(ctx, applicant, &grant.ID, domain.DocumentGrantPayment, "grants/"+grant.ID.String(), uploads, &actor.UserID)
}

func (s *service) save(ctx context.Context, applicant *domain.Applicant, grantID *uuid.UUID, kind domain.DocumentKind, folder string, uploads []Upload, uploadedBy *uuid.UUID) ([]domain.Document, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", domain.ErrValidation)
	}
	for _, u := range uploads {
		if err := Validate(u, s.maxBytes); err != nil {
			return nil, err
		}
	}

	stored, err := PutAll(ctx, s.store, folder, uploads)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(stored))
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, f := range stored {
			doc := f.Document(applicant.TenantID, applicant.ID, kind, uploadedBy)
			doc.GrantID = grantID
			if err := s.documentRepo.Create(ctx, &doc); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		RemoveAll(context.WithoutCancel(ctx), s.store, stored)
		return nil, err
	}
	return docs, nil
}
