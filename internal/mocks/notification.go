package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/service/notification"
)

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) Send(ctx context.Context, notices ...notification.Notice) {
	m.Called(ctx, notices)
}

func (m *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	args := m.Called(ctx, userID, unreadOnly, params)
	return args.Get(0).(domain.PaginatedResponse[domain.Notification]), args.Error(1)
}

func (m *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Notices returns every notice passed to Send, in call order.
func (m *NotificationService) Notices() []notification.Notice {
	var all []notification.Notice
	for _, call := range m.Calls {
		if call.Method != "Send" {
			continue
		}
		all = append(all, call.Arguments.Get(1).([]notification.Notice)...)
	}
	return all
}

type Outbox struct {
	mock.Mock
}

func (m *Outbox) Enqueue(ctx context.Context, env notification.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *Outbox) EnsureGroup(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Outbox) Read(ctx context.Context, count int64) ([]notification.Delivery, error) {
	args := m.Called(ctx, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Delivery), args.Error(1)
}

func (m *Outbox) Reclaim(ctx context.Context, minIdle time.Duration, count int64) ([]notification.Delivery, error) {
	args := m.Called(ctx, minIdle, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Delivery), args.Error(1)
}

func (m *Outbox) Ack(ctx context.Context, streamIDs ...string) error {
	args := m.Called(ctx, streamIDs)
	return args.Error(0)
}

type EmailSender struct {
	mock.Mock
}

func (m *EmailSender) Send(ctx context.Context, msg domain.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	args := m.Called(ctx, userID, unreadOnly, params)
	return args.Get(0).([]domain.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *NotificationRepository) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
