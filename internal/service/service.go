package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service/applicant"
	"rahmah-exchange/internal/service/audit"
	"rahmah-exchange/internal/service/auth"
	"rahmah-exchange/internal/service/casenote"
	"rahmah-exchange/internal/service/dashboard"
	"rahmah-exchange/internal/service/document"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/export"
	"rahmah-exchange/internal/service/intake"
	"rahmah-exchange/internal/service/messaging"
	"rahmah-exchange/internal/service/notification"
	"rahmah-exchange/internal/service/payment"
	"rahmah-exchange/internal/service/user"
	"rahmah-exchange/internal/service/workflow"
)

type Services struct {
	Auth         auth.Service
	User         user.Service
	Intake       intake.Service
	Applicant    applicant.Service
	Workflow     workflow.Service
	CaseNote     casenote.Service
	Payment      payment.Service
	Document     document.Service
	Messaging    messaging.Service
	Notification notification.Service
	Audit        audit.Service
	Dashboard    dashboard.Service
	Export       export.Service

	// Outbox is shared with the delivery worker.
	Outbox notification.Outbox
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, minioClient *minio.Client, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	renderer, err := email.NewRenderer(cfg)
	if err != nil {
		return nil, err
	}

	outbox := notification.NewRedisOutbox(rdb, cfg.OutboxStream, cfg.OutboxGroup, cfg.OutboxConsumer)
	notificationService := notification.NewService(repos.Notification, outbox, logger)
	store := document.NewMinIOStore(minioClient, cfg)
	authService := auth.NewService(repos.User, repos.Session, repos.Applicant, cfg)

	workflowService := workflow.NewService(workflow.Dependencies{
		Applicants:  repos.Applicant,
		Grants:      repos.Grant,
		Notes:       repos.CaseNote,
		Assignments: repos.Assignment,
		Users:       repos.User,
		Documents:   repos.Document,
		AuditLogs:   repos.AuditLog,
		Tx:          repos.Tx,
		Notifier:    notificationService,
		Renderer:    renderer,
		Redis:       rdb,
		Logger:      logger,
	})

	intakeService := intake.NewService(intake.Dependencies{
		Tenants:         repos.Tenant,
		Applicants:      repos.Applicant,
		Users:           repos.User,
		Documents:       repos.Document,
		Tx:              repos.Tx,
		Store:           store,
		Notifier:        notificationService,
		Renderer:        renderer,
		Redis:           rdb,
		Logger:          logger,
		MagicLinkExpiry: cfg.MagicLinkExpiry,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	applicantService := applicant.NewService(applicant.Dependencies{
		Applicants:  repos.Applicant,
		Documents:   repos.Document,
		Assignments: repos.Assignment,
		Users:       repos.User,
		AuditLogs:   repos.AuditLog,
		Tx:          repos.Tx,
		Store:       store,
		Notifier:    notificationService,
		Redis:       rdb,
		Logger:      logger,
	})

	messagingService := messaging.NewService(messaging.Dependencies{
		Applicants:    repos.Applicant,
		Conversations: repos.Conversation,
		Users:         repos.User,
		Tx:            repos.Tx,
		Notifier:      notificationService,
		Renderer:      renderer,
		Logger:        logger,
	})

	return &Services{
		Auth:         authService,
		User:         user.NewService(repos.User, authService),
		Intake:       intakeService,
		Applicant:    applicantService,
		Workflow:     workflowService,
		CaseNote:     casenote.NewService(repos.Applicant, repos.CaseNote, repos.AuditLog, rdb, logger),
		Payment:      payment.NewService(repos.Grant, repos.Payment, repos.AuditLog, repos.Tx, store, rdb, cfg.MaxUploadBytes, logger),
		Document:     document.NewService(repos.Applicant, repos.Grant, repos.Document, repos.Tx, store, cfg.MaxUploadBytes, logger),
		Messaging:    messagingService,
		Notification: notificationService,
		Audit:        audit.NewService(repos.AuditLog),
		Dashboard:    dashboard.NewService(repos.Applicant, repos.Grant, repos.Payment, rdb),
		Export:       export.NewService(repos.Grant, repos.Payment),
		Outbox:       outbox,
	}, nil
}
