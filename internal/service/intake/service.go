package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service/auth"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

const (
	caseIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	caseIDLength   = 6
	caseIDAttempts = 10
)

// errCaseIDExhausted surfaces as 409 so the client can resubmit.
var errCaseIDExhausted = fmt.Errorf("%w: could not allocate an unused case ID", domain.ErrConflict)

type Service interface {
	// Submit stores a new application. actor is nil for public submissions.
	Submit(ctx context.Context, tenantID uuid.UUID, actor *domain.Actor, input domain.CreateApplicantInput, uploads []document.Upload) (*domain.Applicant, error)
	// ReissueMagicLink emails a fresh portal link. Unknown emails are ignored.
	ReissueMagicLink(ctx context.Context, tenantID uuid.UUID, email string) error
}

type Dependencies struct {
	Tenants         repository.TenantRepository
	Applicants      repository.ApplicantRepository
	Users           repository.UserRepository
	Documents       repository.DocumentRepository
	Tx              repository.Transactor
	Store           document.Store
	Notifier        notification.Service
	Renderer        *email.Renderer
	Redis           *redis.Client
	Logger          *zap.Logger
	MagicLinkExpiry time.Duration
	MaxUploadBytes  int64
	Now             func() time.Time
	// NewSuffix generates the random part of a case ID.
	NewSuffix func() (string, error)
}

type service struct {
	Dependencies
	logger *zap.Logger
}

func NewService(deps Dependencies) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewSuffix == nil {
		deps.NewSuffix = func() (string, error) {
			return gonanoid.Generate(caseIDAlphabet, caseIDLength)
		}
	}
	return &service{
		Dependencies: deps,
		logger:       deps.Logger.Named("intake"),
	}
}

func (s *service) Submit(ctx context.Context, tenantID uuid.UUID, actor *domain.Actor, input domain.CreateApplicantInput, uploads []document.Upload) (*domain.Applicant, error) {
	if actor != nil && !actor.HasAnyRole(domain.RoleAdmin, domain.RoleCaseworker) {
		return nil, fmt.Errorf("%w: role %s may not create cases", domain.ErrForbidden, actor.Role)
	}

	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if err := document.Validate(u, s.MaxUploadBytes); err != nil {
			return nil, err
		}
	}

	tenant, err := s.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: organization %s", domain.ErrNotFound, tenantID)
	}

	exists, err := s.Applicants.ExistsByEmail(ctx, tenantID, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: an application with this email already exists", domain.ErrConflict)
	}

	caseID, err := s.allocateCaseID(ctx)
	if err != nil {
		return nil, err
	}

	applicant := newApplicant(tenantID, caseID, input)

	var portalToken string
	if !input.Silent() {
		raw, hash, err := auth.NewOpaqueToken()
		if err != nil {
			return nil, err
		}
		expires := s.Now().Add(s.MagicLinkExpiry)
		portalToken = raw
		applicant.MagicTokenHash = &hash
		applicant.MagicTokenExpiresAt = &expires
	}

	stored, err := document.PutAll(ctx, s.Store, "cases/"+caseID, uploads)
	if err != nil {
		return nil, err
	}

	var uploadedBy *uuid.UUID
	if actor != nil {
		uploadedBy = &actor.UserID
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Applicants.Create(ctx, applicant); err != nil {
			if repository.IsUniqueViolation(err) {
				return fmt.Errorf("%w: an application with this email already exists", domain.ErrConflict)
			}
			return err
		}
		for _, f := range stored {
			doc := f.Document(tenantID, applicant.ID, domain.DocumentCase, uploadedBy)
			if err := s.Documents.Create(ctx, &doc); err != nil {
				return err
			}
			applicant.Documents = append(applicant.Documents, doc)
		}
		return nil
	})
	if err != nil {
		document.RemoveAll(context.WithoutCancel(ctx), s.Store, stored)
		return nil, err
	}
	if applicant.Documents == nil {
		applicant.Documents = []domain.Document{}
	}

	cache.Delete(ctx, s.Redis, cache.DashboardKey(tenantID))

	if input.Silent() {
		s.logger.Info("case stored without notifications",
			zap.String("tenant_id", tenantID.String()),
			zap.String("case_id", caseID),
		)
		return applicant, nil
	}

	s.notifyIntake(context.WithoutCancel(ctx), applicant, portalToken)
	return applicant, nil
}

func (s *service) allocateCaseID(ctx context.Context) (string, error) {
	date := s.Now().UTC().Format("20060102")
	for i := 0; i < caseIDAttempts; i++ {
		suffix, err := s.NewSuffix()
		if err != nil {
			return "", err
		}
		caseID := fmt.Sprintf("CASE-%s-%s", date, suffix)
		taken, err := s.Applicants.ExistsByCaseID(ctx, caseID)
		if err != nil {
			return "", err
		}
		if !taken {
			return caseID, nil
		}
	}
	return "", errCaseIDExhausted
}

func (s *service) notifyIntake(ctx context.Context, applicant *domain.Applicant, portalToken string) {
	log := s.logger.With(
		zap.String("tenant_id", applicant.TenantID.String()),
		zap.String("case_id", applicant.CaseID),
	)

	var notices []notification.Notice

	confirmation, err := s.Renderer.IntakeConfirmation(email.IntakeConfirmationInput{
		To:        applicant.Email,
		Name:      applicant.FullName(),
		CaseID:    applicant.CaseID,
		PortalURL: s.Renderer.PortalURL(portalToken),
	})
	if err != nil {
		log.Warn("failed to render intake confirmation", zap.Error(err))
	} else {
		notices = append(notices, notification.Notice{
			TenantID: applicant.TenantID,
			Type:     domain.NotifCaseSubmitted,
			Email:    &confirmation,
		})
	}

	admins, err := s.Users.ListActiveByRole(ctx, applicant.TenantID, domain.RoleAdmin)
	if err != nil {
		log.Warn("failed to load admins", zap.Error(err))
	}
	for i := range admins {
		admin := admins[i]
		msg, err := s.Renderer.AdminNewCase(email.AdminNewCaseInput{
			To:            admin.Email,
			Name:          admin.FullName,
			Applicant:     applicant,
			DocumentCount: len(applicant.Documents),
		})
		if err != nil {
			log.Warn("failed to render admin summary", zap.String("recipient", admin.Email), zap.Error(err))
			continue
		}
		notices = append(notices, notification.Notice{
			TenantID: applicant.TenantID,
			UserID:   &admin.ID,
			Type:     domain.NotifCaseSubmitted,
			Title:    msg.Subject,
			Message:  applicant.FullName() + " submitted case " + applicant.CaseID + ".",
			Data:     map[string]string{"applicantId": applicant.ID.String(), "caseId": applicant.CaseID},
			Email:    &msg,
		})
	}

	if len(notices) > 0 {
		s.Notifier.Send(ctx, notices...)
	}
}

func (s *service) ReissueMagicLink(ctx context.Context, tenantID uuid.UUID, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	applicant, err := s.Applicants.GetByEmail(ctx, tenantID, emailAddr)
	if err != nil {
		return err
	}
	if applicant == nil {
		return nil
	}

	raw, hash, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.Applicants.SetMagicToken(ctx, applicant.ID, hash, s.Now().Add(s.MagicLinkExpiry)); err != nil {
		return err
	}

	msg, err := s.Renderer.MagicLink(email.MagicLinkInput{
		To:        applicant.Email,
		Name:      applicant.FullName(),
		CaseID:    applicant.CaseID,
		PortalURL: s.Renderer.PortalURL(raw),
	})
	if err != nil {
		return err
	}

	s.Notifier.Send(context.WithoutCancel(ctx), notification.Notice{
		TenantID: tenantID,
		Type:     domain.NotifMagicLink,
		Email:    &msg,
	})
	return nil
}

func normalize(in domain.CreateApplicantInput) domain.CreateApplicantInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

func validate(in domain.CreateApplicantInput) error {
	if in.FirstName == "" || in.LastName == "" {
		return fmt.Errorf("%w: firstName and lastName are required", domain.ErrValidation)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	for name, v := range map[string]*int{"householdSize": in.HouseholdSize, "dependents": in.Dependents} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s cannot be negative", domain.ErrValidation, name)
		}
	}
	money := map[string]bool{
		"monthlyIncome":   in.MonthlyIncome != nil && in.MonthlyIncome.IsNegative(),
		"monthlyExpenses": in.MonthlyExpenses != nil && in.MonthlyExpenses.IsNegative(),
		"totalDebt":       in.TotalDebt != nil && in.TotalDebt.IsNegative(),
		"requestAmount":   in.RequestAmount != nil && in.RequestAmount.IsNegative(),
	}
	for name, negative := range money {
		if negative {
			return fmt.Errorf("%w: %s cannot be negative", domain.ErrValidation, name)
		}
	}
	return nil
}

func newApplicant(tenantID uuid.UUID, caseID string, in domain.CreateApplicantInput) *domain.Applicant {
	return &domain.Applicant{
		ID:               uuid.New(),
		TenantID:         tenantID,
		CaseID:           caseID,
		Status:           domain.StatusPending,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		Phone:            in.Phone,
		StreetAddress:    in.StreetAddress,
		City:             in.City,
		State:            in.State,
		ZipCode:          in.ZipCode,
		DateOfBirth:      in.DateOfBirth,
		Gender:           in.Gender,
		MaritalStatus:    in.MaritalStatus,
		HouseholdSize:    in.HouseholdSize,
		Dependents:       in.Dependents,
		EmploymentStatus: in.EmploymentStatus,
		EmployerName:     in.EmployerName,
		MonthlyIncome:    in.MonthlyIncome,
		MonthlyExpenses:  in.MonthlyExpenses,
		TotalDebt:        in.TotalDebt,
		RequestType:      in.RequestType,
		RequestAmount:    in.RequestAmount,
		RequestReason:    in.RequestReason,
		ReferenceName:    in.ReferenceName,
		ReferencePhone:   in.ReferencePhone,
		IsOldCase:        in.Silent(),
	}
}
