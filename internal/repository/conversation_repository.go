package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rahmah-exchange/internal/domain"
)

const conversationColumns = `id, tenant_id, applicant_id, subject, created_by, created_at, updated_at`

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Conversation, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Conversation, error)
	ListForParticipant(ctx context.Context, tenantID, participantID uuid.UUID, params domain.PaginationParams) ([]domain.Conversation, int64, error)
	Touch(ctx context.Context, id uuid.UUID) error

	AddParticipant(ctx context.Context, p *domain.Participant) (bool, error)
	ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error)
	IsParticipant(ctx context.Context, conversationID, participantID uuid.UUID) (bool, error)

	CreateMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, params domain.PaginationParams) ([]domain.Message, int64, error)
}

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, tenant_id, applicant_id, subject, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		c.ID, c.TenantID, c.ApplicantID, c.Subject, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *conversationRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &convs,
		`SELECT `+conversationColumns+` FROM conversations WHERE applicant_id = $1 ORDER BY updated_at DESC`, applicantID)
	return convs, err
}

func (r *conversationRepository) ListForParticipant(ctx context.Context, tenantID, participantID uuid.UUID, params domain.PaginationParams) ([]domain.Conversation, int64, error) {
	params.Validate()

	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total, `
		SELECT COUNT(*) FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.tenant_id = $1 AND p.participant_id = $2`, tenantID, participantID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT c.id, c.tenant_id, c.applicant_id, c.subject, c.created_by, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.tenant_id = $1 AND p.participant_id = $2
		ORDER BY c.updated_at DESC
		LIMIT $3 OFFSET $4`

	var convs []domain.Conversation
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &convs, query, tenantID, participantID, params.PageSize, params.Offset())
	return convs, total, err
}

func (r *conversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, id)
	return err
}

// AddParticipant reports whether the participant was newly added.
func (r *conversationRepository) AddParticipant(ctx context.Context, p *domain.Participant) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO conversation_participants (conversation_id, participant_id, kind, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (conversation_id, participant_id) DO NOTHING`,
		p.ConversationID, p.ParticipantID, p.Kind, p.Role)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *conversationRepository) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &participants, `
		SELECT conversation_id, participant_id, kind, role, joined_at
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY joined_at`, conversationID)
	return participants, err
}

func (r *conversationRepository) IsParticipant(ctx context.Context, conversationID, participantID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &exists,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND participant_id = $2)`,
		conversationID, participantID)
	return exists, err
}

func (r *conversationRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, sender_kind, sender_role, sender_name, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		m.ID, m.ConversationID, m.SenderID, m.SenderKind, m.SenderRole, m.SenderName, m.Body,
	).Scan(&m.CreatedAt)
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, params domain.PaginationParams) ([]domain.Message, int64, error) {
	params.Validate()

	var total int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &total,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID); err != nil {
		return nil, 0, err
	}

	var msgs []domain.Message
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &msgs, `
		SELECT id, conversation_id, sender_id, sender_kind, sender_role, sender_name, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`, conversationID, params.PageSize, params.Offset())
	return msgs, total, err
}
