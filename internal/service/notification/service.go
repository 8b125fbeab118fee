package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
)

// Notice is a notification intent. UserID set means a staff inbox entry is
// written; Email set means an email is queued for delivery.
type Notice struct {
	TenantID uuid.UUID
	UserID   *uuid.UUID
	Type     domain.NotificationType
	Title    string
	Message  string
	Data     map[string]string
	Email    *domain.EmailMessage
}

type Service interface {
	// Send records and queues every notice. Failures are logged, never returned.
	Send(ctx context.Context, notices ...Notice)

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	notifRepo repository.NotificationRepository
	outbox    Outbox
	logger    *zap.Logger
}

func NewService(notifRepo repository.NotificationRepository, outbox Outbox, logger *zap.Logger) Service {
	return &service{
		notifRepo: notifRepo,
		outbox:    outbox,
		logger:    logger.Named("notification"),
	}
}

func (s *service) Send(ctx context.Context, notices ...Notice) {
	for _, n := range notices {
		id := uuid.New()

		if n.UserID != nil {
			notif := &domain.Notification{
				ID:       id,
				TenantID: n.TenantID,
				UserID:   *n.UserID,
				Type:     n.Type,
				Title:    n.Title,
				Message:  n.Message,
			}
			if len(n.Data) > 0 {
				data, _ := json.Marshal(n.Data)
				notif.Data = json.RawMessage(data)
			}
			if err := s.notifRepo.Create(ctx, notif); err != nil {
				s.logger.Warn("failed to create in-app notification",
					zap.String("tenant_id", n.TenantID.String()),
					zap.String("user_id", n.UserID.String()),
					zap.String("type", string(n.Type)),
					zap.Error(err),
				)
			}
		}

		if n.Email == nil || len(n.Email.To) == 0 || s.outbox == nil {
			continue
		}

		env := Envelope{
			ID:         id,
			TenantID:   n.TenantID,
			Type:       n.Type,
			Email:      *n.Email,
			EnqueuedAt: time.Now().UTC(),
		}
		if err := s.outbox.Enqueue(ctx, env); err != nil {
			s.logger.Warn("failed to enqueue email",
				zap.String("tenant_id", n.TenantID.String()),
				zap.Strings("recipient", n.Email.To),
				zap.String("type", string(n.Type)),
				zap.Error(err),
			)
		}
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	params.Validate()
	notifications, total, err := s.notifRepo.ListByUser(ctx, userID, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}

	return domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total), nil
}

func (s *service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.notifRepo.MarkAsRead(ctx, userID, id)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

func (s *service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}
