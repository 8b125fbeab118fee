package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

const notificationColumns = `id, tenant_id, user_id, type, title, message, data, is_read, read_at, created_at`

type NotificationRepository interface {
	Create(ctx context.Context, notif *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, tenant_id, user_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	var data any
	if len(notif.Data) > 0 {
		data = []byte(notif.Data)
	}

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		notif.ID, notif.TenantID, notif.UserID, notif.Type, notif.Title, notif.Message, data,
	).Scan(&notif.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	params.Validate()

	where := sq.Eq{"user_id": userID}
	if unreadOnly {
		where["is_read"] = false
	}

	countQuery, countArgs, err := psql().Select("COUNT(*)").From("notifications").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query, args, err := psql().
		Select(notificationColumns).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(params.PageSize)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var notifications []domain.Notification
	err = sqlx.SelectContext(ctx, conn(ctx, r.db), &notifications, query, args...)
	return notifications, total, err
}

// MarkAsRead is scoped to the owner so one user cannot clear another's inbox.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, NOW()) WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID)
	return count, err
}
